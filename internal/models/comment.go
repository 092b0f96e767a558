package models

import (
	"time"
)

// Comment is one annotation anchored to a page URL.
type Comment struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	URL        string     `gorm:"not null;index:idx_comment_url_created,priority:1" json:"url"`
	RawText    string     `gorm:"type:text;not null" json:"rawText"`
	Text       string     `gorm:"type:text;not null" json:"text"` // Rendered, sanitized HTML
	AuthorID   string     `gorm:"size:36;not null;index" json:"authorId"`
	AuthorName string     `gorm:"size:64;not null" json:"authorName"`
	ParentID   *string    `gorm:"size:36;index" json:"parentId"` // Nullable for top-level comments
	CreatedAt  time.Time  `gorm:"index:idx_comment_url_created,priority:2" json:"timestamp"`
	EditedAt   *time.Time `json:"editedAt,omitempty"`
}
