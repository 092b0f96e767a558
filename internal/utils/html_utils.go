package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var handlePattern = regexp.MustCompile(`@\w+`)

// EnhanceHTMLContent hardens images and marks @mentions in already sanitized
// HTML.
func EnhanceHTMLContent(htmlStr string) (string, error) {
	if htmlStr == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return "", fmt.Errorf("parse rendered html: %w", err)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})

	// Wrap mentions outside links and code so the extension can style them.
	doc.Find("p, li, blockquote, td").Each(func(i int, s *goquery.Selection) {
		s.Contents().Each(func(j int, child *goquery.Selection) {
			node := child.Get(0)
			if node.Type != html.TextNode || !handlePattern.MatchString(node.Data) {
				return
			}
			escaped := html.EscapeString(node.Data)
			child.ReplaceWithHtml(handlePattern.ReplaceAllString(escaped, `<span class="mention">$0</span>`))
		})
	})

	// goquery renders full document tags if missing, we just want the body content
	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serialize rendered html: %w", err)
	}
	return out, nil
}
