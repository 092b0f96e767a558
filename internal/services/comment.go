package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"pagenotes/internal/models"
	"pagenotes/internal/store"

	"github.com/google/uuid"
)

// CommentService orchestrates comment writes and the threaded read path.
type CommentService struct {
	store    store.Store
	renderer Renderer
	votes    *VoteAggregator
	notifier *NotificationDispatcher
	hub      Publisher

	pageSize    int
	maxPageSize int

	now   func() time.Time
	newID func() string
}

type CommentServiceConfig struct {
	PageSize    int
	MaxPageSize int
}

func NewCommentService(s store.Store, renderer Renderer, votes *VoteAggregator, notifier *NotificationDispatcher, hub Publisher, cfg CommentServiceConfig) *CommentService {
	if hub == nil {
		hub = nopPublisher{}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.MaxPageSize < cfg.PageSize {
		cfg.MaxPageSize = cfg.PageSize
	}
	return &CommentService{
		store:       s,
		renderer:    renderer,
		votes:       votes,
		notifier:    notifier,
		hub:         hub,
		pageSize:    cfg.PageSize,
		maxPageSize: cfg.MaxPageSize,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// CreatedComment is the outcome of Create. NotifyErr is set when the comment was
// stored but some mention notifications could not be.
type CreatedComment struct {
	Comment       *CommentNode
	Notifications []models.Notification
	NotifyErr     error
}

// CommentPage is one page of a topic's threaded comments.
type CommentPage struct {
	Comments   []*CommentNode `json:"comments"`
	Pagination Pagination     `json:"pagination"`
}

// Create stores a new comment, announces it on its topic and notifies the
// users it mentions.
func (s *CommentService) Create(ctx context.Context, actor Actor, url, rawText string, parentID *string) (*CreatedComment, error) {
	const op = "create comment"
	url = strings.TrimSpace(url)
	if actor.ID == "" {
		return nil, invalid(op, "author is required")
	}
	if url == "" {
		return nil, invalid(op, "url is required")
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, invalid(op, "text is required")
	}
	if parentID != nil && *parentID == "" {
		parentID = nil
	}

	if parentID != nil {
		parent, err := s.store.GetComment(ctx, *parentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, invalid(op, "parent comment does not exist")
			}
			return nil, storeErr(op, err)
		}
		if parent.URL != url {
			return nil, invalid(op, "parent comment belongs to another page")
		}
	}

	rendered, err := s.renderer.Render(rawText)
	if err != nil {
		return nil, &Error{Kind: KindCollaborator, Op: op, Err: err}
	}

	comment := models.Comment{
		ID:         s.newID(),
		URL:        url,
		RawText:    rawText,
		Text:       rendered,
		AuthorID:   actor.ID,
		AuthorName: actor.Username,
		ParentID:   parentID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.InsertComment(ctx, &comment); err != nil {
		return nil, storeErr(op, err)
	}

	node := newNode(comment, models.Tally{})
	s.hub.PublishTopic(comment.URL, EventNewComment, NewCommentEvent{URL: comment.URL, Comment: node})

	result := &CreatedComment{Comment: node}
	if s.notifier != nil {
		result.Notifications, result.NotifyErr = s.notifier.Dispatch(ctx, comment)
	}
	return result, nil
}

// Edit replaces the text of the actor's own comment. Votes are kept.
func (s *CommentService) Edit(ctx context.Context, actor Actor, id, rawText string) (*CommentNode, error) {
	const op = "edit comment"
	if strings.TrimSpace(rawText) == "" {
		return nil, invalid(op, "text is required")
	}

	comment, err := s.owned(ctx, op, actor, id)
	if err != nil {
		return nil, err
	}

	rendered, err := s.renderer.Render(rawText)
	if err != nil {
		return nil, &Error{Kind: KindCollaborator, Op: op, Err: err}
	}

	editedAt := s.now().UTC()
	comment.RawText = rawText
	comment.Text = rendered
	comment.EditedAt = &editedAt
	if err := s.store.UpdateComment(ctx, &comment); err != nil {
		return nil, storeErr(op, err)
	}

	tally, err := s.votes.Tally(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	s.hub.PublishTopic(comment.URL, EventCommentEdited, CommentEditedEvent{
		CommentID: comment.ID,
		Text:      comment.Text,
		EditedAt:  editedAt,
	})
	return newNode(comment, tally), nil
}

// Delete removes the actor's comment together with every reply beneath it.
// It returns the IDs that were removed.
func (s *CommentService) Delete(ctx context.Context, actor Actor, id string) ([]string, error) {
	const op = "delete comment"
	comment, err := s.owned(ctx, op, actor, id)
	if err != nil {
		return nil, err
	}

	ids, err := s.store.DeleteCommentTree(ctx, comment.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound(op, "comment not found")
		}
		return nil, storeErr(op, err)
	}

	for _, removed := range ids {
		s.hub.PublishTopic(comment.URL, EventCommentDeleted, CommentDeletedEvent{CommentID: removed})
	}
	return ids, nil
}

func (s *CommentService) owned(ctx context.Context, op string, actor Actor, id string) (models.Comment, error) {
	if id == "" {
		return models.Comment{}, invalid(op, "comment id is required")
	}
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Comment{}, notFound(op, "comment not found")
		}
		return models.Comment{}, storeErr(op, err)
	}
	if comment.AuthorID != actor.ID {
		return models.Comment{}, forbidden(op, "not the author")
	}
	return comment, nil
}

// Get returns a single comment with its tally and no replies.
func (s *CommentService) Get(ctx context.Context, id string) (*CommentNode, error) {
	const op = "get comment"
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound(op, "comment not found")
		}
		return nil, storeErr(op, err)
	}
	tally, err := s.votes.Tally(ctx, id)
	if err != nil {
		return nil, err
	}
	return newNode(comment, tally), nil
}

// List pages the topic's comments newest first, then threads that page.
// Replies whose parent sits on another page are not shown on this one.
func (s *CommentService) List(ctx context.Context, url string, page, limit int) (*CommentPage, error) {
	const op = "list comments"
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, invalid(op, "url is required")
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.pageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	total, err := s.store.CountCommentsByURL(ctx, url)
	if err != nil {
		return nil, storeErr(op, err)
	}
	comments, err := s.store.ListCommentsByURL(ctx, url, offset(page, limit), limit)
	if err != nil {
		return nil, storeErr(op, err)
	}

	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	tallies, err := s.votes.Tallies(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &CommentPage{
		Comments:   BuildTree(comments, tallies),
		Pagination: NewPagination(total, page, limit),
	}, nil
}
