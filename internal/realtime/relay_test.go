package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRelay(t *testing.T, ctx context.Context, s *miniredis.Miniredis) *Hub {
	t.Helper()
	relay, err := NewRedisRelay("redis://"+s.Addr(), "pagenotes:test")
	require.NoError(t, err)
	t.Cleanup(func() { relay.Close() })

	hub := NewHub()
	require.NoError(t, relay.Start(ctx, hub))
	return hub
}

func TestRedisRelaySharesEventsAcrossInstances(t *testing.T) {
	s := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := startRelay(t, ctx, s)
	b := startRelay(t, ctx, s)

	onA := &fakeSubscriber{}
	onB := &fakeSubscriber{}
	bobOnB := &fakeSubscriber{}
	a.Join(onA, "https://t.test")
	b.Join(onB, "https://t.test")
	b.Subscribe(bobOnB, "bob")

	a.PublishTopic("https://t.test", "newComment", map[string]string{"id": "c1"})
	a.PublishUser("bob", "notification", map[string]string{"id": "n1"})

	assert.Eventually(t, func() bool {
		return len(onB.events()) == 1 && len(bobOnB.events()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// the publishing instance delivers locally once and ignores its own echo
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"newComment"}, onA.events())
	assert.Equal(t, []string{"newComment"}, onB.events())
}

func TestNewRedisRelayBadURL(t *testing.T) {
	_, err := NewRedisRelay("not a url", "c")
	assert.ErrorContains(t, err, "parse redis url")
}
