package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pagenotes/internal/models"
)

type voteKey struct {
	commentID string
	voterID   string
}

type notificationKey struct {
	commentID string
	userID    string
}

// MemoryStore keeps every record in process memory. It backs tests and the
// "memory" driver used for local development.
type MemoryStore struct {
	mu            sync.RWMutex
	seq           int64
	comments      map[string]models.Comment
	commentSeq    map[string]int64
	votes         map[voteKey]models.Vote
	notifications map[string]models.Notification
	notified      map[notificationKey]string
	users         map[string]models.User
	usernames     map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		comments:      make(map[string]models.Comment),
		commentSeq:    make(map[string]int64),
		votes:         make(map[voteKey]models.Vote),
		notifications: make(map[string]models.Notification),
		notified:      make(map[notificationKey]string),
		users:         make(map[string]models.User),
		usernames:     make(map[string]string),
	}
}

// newestFirst orders comments by creation time, breaking ties by insertion order.
func (s *MemoryStore) newestFirst(comments []models.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return s.commentSeq[a.ID] > s.commentSeq[b.ID]
	})
}

func (s *MemoryStore) ListCommentsByURL(_ context.Context, url string, offset, limit int) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Comment
	for _, c := range s.comments {
		if c.URL == url {
			matched = append(matched, c)
		}
	}
	s.newestFirst(matched)

	if offset >= len(matched) {
		return []models.Comment{}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

func (s *MemoryStore) CountCommentsByURL(_ context.Context, url string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, c := range s.comments {
		if c.URL == url {
			total++
		}
	}
	return total, nil
}

func (s *MemoryStore) GetComment(_ context.Context, id string) (models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, fmt.Errorf("get comment: %w", ErrNotFound)
	}
	return c, nil
}

func (s *MemoryStore) InsertComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.comments[comment.ID]; exists {
		return fmt.Errorf("insert comment: %w", ErrConflict)
	}
	s.seq++
	s.comments[comment.ID] = *comment
	s.commentSeq[comment.ID] = s.seq
	return nil
}

func (s *MemoryStore) UpdateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.comments[comment.ID]
	if !ok {
		return fmt.Errorf("update comment: %w", ErrNotFound)
	}
	existing.RawText = comment.RawText
	existing.Text = comment.Text
	existing.EditedAt = comment.EditedAt
	s.comments[comment.ID] = existing
	return nil
}

func (s *MemoryStore) DeleteCommentTree(_ context.Context, rootID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[rootID]; !ok {
		return nil, fmt.Errorf("delete comment tree: %w", ErrNotFound)
	}

	removed := []string{rootID}
	doomed := map[string]struct{}{rootID: {}}
	for i := 0; i < len(removed); i++ {
		var children []models.Comment
		for _, c := range s.comments {
			if c.ParentID != nil && *c.ParentID == removed[i] {
				if _, ok := doomed[c.ID]; !ok {
					children = append(children, c)
				}
			}
		}
		s.newestFirst(children)
		for _, c := range children {
			doomed[c.ID] = struct{}{}
			removed = append(removed, c.ID)
		}
	}

	for id := range doomed {
		delete(s.comments, id)
		delete(s.commentSeq, id)
	}
	for key := range s.votes {
		if _, ok := doomed[key.commentID]; ok {
			delete(s.votes, key)
		}
	}
	return removed, nil
}

func (s *MemoryStore) GetVote(_ context.Context, commentID, voterID string) (models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.votes[voteKey{commentID, voterID}]
	if !ok {
		return models.Vote{}, fmt.Errorf("get vote: %w", ErrNotFound)
	}
	return v, nil
}

func (s *MemoryStore) SaveVote(_ context.Context, vote *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{vote.CommentID, vote.VoterID}
	if existing, ok := s.votes[key]; ok {
		existing.Kind = vote.Kind
		existing.UpdatedAt = vote.UpdatedAt
		s.votes[key] = existing
		return nil
	}
	s.votes[key] = *vote
	return nil
}

func (s *MemoryStore) DeleteVote(_ context.Context, commentID, voterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{commentID, voterID}
	if _, ok := s.votes[key]; !ok {
		return false, nil
	}
	delete(s.votes, key)
	return true, nil
}

func (s *MemoryStore) CountVotes(_ context.Context, commentIDs []string) (map[string]models.Tally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(commentIDs))
	for _, id := range commentIDs {
		wanted[id] = struct{}{}
	}

	tallies := make(map[string]models.Tally, len(commentIDs))
	for key, v := range s.votes {
		if _, ok := wanted[key.commentID]; !ok {
			continue
		}
		t := tallies[key.commentID]
		switch v.Kind {
		case models.VoteUp:
			t.Upvotes++
		case models.VoteDown:
			t.Downvotes++
		}
		tallies[key.commentID] = t
	}
	return tallies, nil
}

func (s *MemoryStore) InsertNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := notificationKey{n.CommentID, n.UserID}
	if _, exists := s.notified[key]; exists {
		return fmt.Errorf("insert notification: %w", ErrConflict)
	}
	if _, exists := s.notifications[n.ID]; exists {
		return fmt.Errorf("insert notification: %w", ErrConflict)
	}
	s.notifications[n.ID] = *n
	s.notified[key] = n.ID
	return nil
}

func (s *MemoryStore) GetNotification(_ context.Context, id string) (models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return models.Notification{}, fmt.Errorf("get notification: %w", ErrNotFound)
	}
	return n, nil
}

func (s *MemoryStore) ListNotifications(_ context.Context, userID string, limit int) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			list = append(list, n)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *MemoryStore) MarkNotificationRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return fmt.Errorf("mark notification read: %w", ErrNotFound)
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}

func (s *MemoryStore) MarkAllNotificationsRead(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for id, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			s.notifications[id] = n
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStore) CountUnread(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) InsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usernames[user.Username]; taken {
		return fmt.Errorf("insert user: %w", ErrConflict)
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("insert user: %w", ErrConflict)
	}
	s.users[user.ID] = *user
	s.usernames[user.Username] = user.ID
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("get user: %w", ErrNotFound)
	}
	return u, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usernames[username]
	if !ok {
		return models.User{}, fmt.Errorf("get user by username: %w", ErrNotFound)
	}
	return s.users[id], nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)
