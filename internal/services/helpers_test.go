package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"pagenotes/internal/models"
	"pagenotes/internal/store"

	"github.com/stretchr/testify/require"
)

type published struct {
	scope   string
	key     string
	event   string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishTopic(url, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{"topic", url, event, payload})
}

func (p *recordingPublisher) PublishUser(userID, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{"user", userID, event, payload})
}

func (p *recordingPublisher) named(event string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

type countingRenderer struct {
	calls int
	err   error
}

func (r *countingRenderer) Render(raw string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return "<p>" + raw + "</p>", nil
}

// failingNotifications breaks InsertNotification for one recipient.
type failingNotifications struct {
	*store.MemoryStore
	failFor string
}

func (s *failingNotifications) InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.UserID == s.failFor {
		return errors.New("disk full")
	}
	return s.MemoryStore.InsertNotification(ctx, n)
}

type fixture struct {
	store    *store.MemoryStore
	hub      *recordingPublisher
	renderer *countingRenderer
	votes    *VoteAggregator
	notifier *NotificationDispatcher
	comments *CommentService
	users    map[string]models.User
}

func newFixture(t *testing.T, usernames ...string) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	f := &fixture{
		store:    s,
		hub:      &recordingPublisher{},
		renderer: &countingRenderer{},
		users:    make(map[string]models.User),
	}
	for _, name := range usernames {
		u := models.User{ID: "id-" + name, Username: name, Password: "x"}
		require.NoError(t, s.InsertUser(context.Background(), &u))
		f.users[name] = u
	}

	directory, err := NewCachedDirectory(s, 16, time.Minute)
	require.NoError(t, err)

	f.votes = NewVoteAggregator(s, f.hub)
	f.notifier = NewNotificationDispatcher(s, directory, f.hub)
	f.comments = NewCommentService(s, f.renderer, f.votes, f.notifier, f.hub, CommentServiceConfig{PageSize: 20, MaxPageSize: 50})

	// Deterministic, strictly increasing timestamps.
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	f.comments.now = tick
	f.notifier.now = tick
	f.votes.now = tick
	seq := 0
	f.comments.newID = func() string {
		seq++
		return fmt.Sprintf("c%02d", seq)
	}
	return f
}

func (f *fixture) actor(name string) Actor {
	u := f.users[name]
	return Actor{ID: u.ID, Username: u.Username}
}

func (f *fixture) create(t *testing.T, author, url, text string, parent *string) *CommentNode {
	t.Helper()
	created, err := f.comments.Create(context.Background(), f.actor(author), url, text, parent)
	require.NoError(t, err)
	require.NoError(t, created.NotifyErr)
	return created.Comment
}

func ids(nodes []*CommentNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func strPtr(s string) *string { return &s }

func shape(nodes []*CommentNode) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.ID
		if len(n.Replies) > 0 {
			parts[i] += "[" + shape(n.Replies) + "]"
		}
	}
	return strings.Join(parts, " ")
}
