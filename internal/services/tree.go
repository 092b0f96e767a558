package services

import (
	"pagenotes/internal/models"
)

// CommentNode is a comment with its tally and nested replies, as served to
// clients.
type CommentNode struct {
	models.Comment
	Upvotes   int            `json:"upvotes"`
	Downvotes int            `json:"downvotes"`
	Replies   []*CommentNode `json:"replies"`
}

func newNode(c models.Comment, t models.Tally) *CommentNode {
	return &CommentNode{
		Comment:   c,
		Upvotes:   t.Upvotes,
		Downvotes: t.Downvotes,
		Replies:   []*CommentNode{},
	}
}

// BuildTree threads one page of comments into a forest. Input order is kept for
// roots and for siblings. A reply whose parent is not in the page is dropped
// rather than promoted to a root.
func BuildTree(comments []models.Comment, tallies map[string]models.Tally) []*CommentNode {
	nodes := make(map[string]*CommentNode, len(comments))
	for _, c := range comments {
		nodes[c.ID] = newNode(c, tallies[c.ID])
	}

	roots := make([]*CommentNode, 0, len(comments))
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID == nil || *c.ParentID == "" {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*c.ParentID]
		if !ok || parent.URL != c.URL || parent == node {
			// orphaned on this page
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}
	return roots
}

// CountNodes returns the number of comments reachable from roots.
func CountNodes(roots []*CommentNode) int {
	total := 0
	for _, n := range roots {
		total += 1 + CountNodes(n.Replies)
	}
	return total
}
