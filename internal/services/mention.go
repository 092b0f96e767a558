package services

import (
	"iter"
	"regexp"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// Mentions yields every @handle in text, in order of appearance and without the
// leading "@". Repeated handles are yielded each time they occur.
func Mentions(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := text
		for {
			loc := mentionPattern.FindStringSubmatchIndex(rest)
			if loc == nil {
				return
			}
			if !yield(rest[loc[2]:loc[3]]) {
				return
			}
			rest = rest[loc[1]:]
		}
	}
}

// ExtractMentions collects Mentions into a slice.
func ExtractMentions(text string) []string {
	var handles []string
	for handle := range Mentions(text) {
		handles = append(handles, handle)
	}
	return handles
}
