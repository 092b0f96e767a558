package services

import (
	"context"
	"time"

	"pagenotes/internal/models"
)

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	ID       string
	Username string
}

// Renderer turns raw comment text into safe HTML.
type Renderer interface {
	Render(raw string) (string, error)
}

// UserLookup resolves a mention handle to a user. Unknown handles return an
// error matching store.ErrNotFound.
type UserLookup interface {
	LookupUsername(ctx context.Context, username string) (models.User, error)
}

// Publisher fans events out to live subscribers. Implementations must not block
// and must not fail the caller.
type Publisher interface {
	PublishTopic(url, event string, payload any)
	PublishUser(userID, event string, payload any)
}

// Event names carried on the topic and user channels.
const (
	EventNewComment     = "newComment"
	EventCommentEdited  = "commentEdited"
	EventCommentDeleted = "commentDeleted"
	EventCommentVoted   = "commentVoted"
	EventNotification   = "notification"
)

type NewCommentEvent struct {
	URL     string       `json:"url"`
	Comment *CommentNode `json:"comment"`
}

type CommentEditedEvent struct {
	CommentID string    `json:"commentId"`
	Text      string    `json:"text"`
	EditedAt  time.Time `json:"editedAt"`
}

type CommentDeletedEvent struct {
	CommentID string `json:"commentId"`
}

type CommentVotedEvent struct {
	CommentID string `json:"commentId"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
}

type NotificationEvent struct {
	Notification models.Notification `json:"notification"`
}

type nopPublisher struct{}

func (nopPublisher) PublishTopic(string, string, any) {}
func (nopPublisher) PublishUser(string, string, any)  {}
