package models

import (
	"time"
)

type VoteKind string

const (
	VoteUp   VoteKind = "up"
	VoteDown VoteKind = "down"
)

// Valid reports whether k is one of the two accepted kinds.
func (k VoteKind) Valid() bool {
	return k == VoteUp || k == VoteDown
}

// Vote is a single voter's live vote on a comment. (comment_id, voter_id) is unique.
type Vote struct {
	CommentID string    `gorm:"primaryKey;size:36" json:"commentId"`
	VoterID   string    `gorm:"primaryKey;size:36;index" json:"voterId"`
	Kind      VoteKind  `gorm:"type:varchar(8);not null" json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tally is the up/down summary derived from live vote rows.
type Tally struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}
