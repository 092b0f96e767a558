package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pagenotes/internal/models"
	"pagenotes/internal/store"

	"github.com/google/uuid"
)

// NotificationDispatcher turns the mentions in a new comment into one
// notification per distinct recipient.
type NotificationDispatcher struct {
	store store.NotificationStore
	users UserLookup
	hub   Publisher
	now   func() time.Time
	newID func() string
}

func NewNotificationDispatcher(s store.NotificationStore, users UserLookup, hub Publisher) *NotificationDispatcher {
	if hub == nil {
		hub = nopPublisher{}
	}
	return &NotificationDispatcher{
		store: s,
		users: users,
		hub:   hub,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Recipients resolves the handles mentioned in comment to user IDs, in order of
// first mention. Unknown handles and the author are skipped.
func (d *NotificationDispatcher) Recipients(ctx context.Context, comment models.Comment) ([]models.User, error) {
	seenHandle := make(map[string]struct{})
	seenUser := make(map[string]struct{})
	var (
		recipients []models.User
		errs       []error
	)
	for handle := range Mentions(comment.RawText) {
		if _, ok := seenHandle[handle]; ok {
			continue
		}
		seenHandle[handle] = struct{}{}

		user, err := d.users.LookupUsername(ctx, handle)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				errs = append(errs, fmt.Errorf("resolve @%s: %w", handle, err))
			}
			continue
		}
		if user.ID == comment.AuthorID {
			continue
		}
		if _, ok := seenUser[user.ID]; ok {
			continue
		}
		seenUser[user.ID] = struct{}{}
		recipients = append(recipients, user)
	}
	if len(errs) > 0 {
		return recipients, &Error{Kind: KindCollaborator, Op: "resolve mentions", Err: errors.Join(errs...)}
	}
	return recipients, nil
}

// Dispatch writes a mention notification for every recipient of comment and
// publishes each one to its recipient after the write succeeds. Notifications
// already recorded for the (comment, recipient) pair are not written twice.
// Failures do not stop the remaining recipients; they are joined into the
// returned error next to the notifications that were created.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, comment models.Comment) ([]models.Notification, error) {
	recipients, resolveErr := d.Recipients(ctx, comment)

	var (
		created []models.Notification
		errs    []error
	)
	if resolveErr != nil {
		errs = append(errs, resolveErr)
	}

	for _, user := range recipients {
		n := models.Notification{
			ID:        d.newID(),
			UserID:    user.ID,
			Type:      models.NotificationTypeMention,
			Message:   fmt.Sprintf("%s mentioned you in a comment", comment.AuthorName),
			CommentID: comment.ID,
			URL:       comment.URL,
			CreatedAt: d.now().UTC(),
		}
		if err := d.store.InsertNotification(ctx, &n); err != nil {
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			log.Printf("[notify] comment %s: notify %s: %v", comment.ID, user.ID, err)
			errs = append(errs, storeErr("insert notification", err))
			continue
		}
		created = append(created, n)
		d.hub.PublishUser(n.UserID, EventNotification, NotificationEvent{Notification: n})
	}

	if len(errs) > 0 {
		return created, &Error{Kind: KindCollaborator, Op: "dispatch notifications", Err: errors.Join(errs...)}
	}
	return created, nil
}

// NotificationService serves a recipient's notification inbox.
type NotificationService struct {
	store store.NotificationStore
	limit int
}

func NewNotificationService(s store.NotificationStore, limit int) *NotificationService {
	if limit <= 0 {
		limit = 50
	}
	return &NotificationService{store: s, limit: limit}
}

// List returns the actor's newest notifications, capped at the service limit.
func (s *NotificationService) List(ctx context.Context, actor Actor, limit int) ([]models.Notification, error) {
	if actor.ID == "" {
		return nil, invalid("list notifications", "recipient is required")
	}
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	list, err := s.store.ListNotifications(ctx, actor.ID, limit)
	if err != nil {
		return nil, storeErr("list notifications", err)
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

// MarkRead flags one notification as read. Only the recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id string) error {
	const op = "mark notification read"
	if id == "" {
		return invalid(op, "notification id is required")
	}
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(op, "notification not found")
		}
		return storeErr(op, err)
	}
	if n.UserID != actor.ID {
		return forbidden(op, "not the recipient")
	}
	if n.Read {
		return nil
	}
	if err := s.store.MarkNotificationRead(ctx, id); err != nil {
		return storeErr(op, err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	updated, err := s.store.MarkAllNotificationsRead(ctx, actor.ID)
	if err != nil {
		return 0, storeErr("mark all notifications read", err)
	}
	return updated, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor Actor) (int64, error) {
	count, err := s.store.CountUnread(ctx, actor.ID)
	if err != nil {
		return 0, storeErr("count unread", err)
	}
	return count, nil
}
