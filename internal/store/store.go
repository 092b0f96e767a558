// Package store is the persistence collaborator behind the comment core.
// Implementations guarantee atomic writes per row; nothing else is promised.
package store

import (
	"context"
	"errors"

	"pagenotes/internal/models"
)

var (
	ErrNotFound = errors.New("store: record not found")
	ErrConflict = errors.New("store: duplicate record")
)

type CommentStore interface {
	// ListCommentsByURL returns one page of comments for url, newest first.
	ListCommentsByURL(ctx context.Context, url string, offset, limit int) ([]models.Comment, error)
	CountCommentsByURL(ctx context.Context, url string) (int64, error)
	GetComment(ctx context.Context, id string) (models.Comment, error)
	InsertComment(ctx context.Context, comment *models.Comment) error
	UpdateComment(ctx context.Context, comment *models.Comment) error
	// DeleteCommentTree removes rootID, every reply beneath it and their votes
	// in one atomic step. It returns the removed IDs, root first.
	DeleteCommentTree(ctx context.Context, rootID string) ([]string, error)
}

type VoteStore interface {
	GetVote(ctx context.Context, commentID, voterID string) (models.Vote, error)
	// SaveVote inserts the row or replaces the kind of the existing one.
	SaveVote(ctx context.Context, vote *models.Vote) error
	DeleteVote(ctx context.Context, commentID, voterID string) (bool, error)
	CountVotes(ctx context.Context, commentIDs []string) (map[string]models.Tally, error)
}

type NotificationStore interface {
	// InsertNotification fails with ErrConflict when the (comment, user) pair already exists.
	InsertNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (models.Notification, error)
	ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type UserStore interface {
	InsertUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

type Store interface {
	CommentStore
	VoteStore
	NotificationStore
	UserStore
}
