package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	mu     sync.Mutex
	frames []Frame
	full   bool
}

func (s *fakeSubscriber) Deliver(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	var f Frame
	if err := json.Unmarshal(frame, &f); err != nil {
		return false
	}
	s.frames = append(s.frames, f)
	return true
}

func (s *fakeSubscriber) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.Event
	}
	return out
}

func TestTopicPublishReachesJoinedSubscribersOnly(t *testing.T) {
	hub := NewHub()
	viewer := &fakeSubscriber{}
	other := &fakeSubscriber{}
	hub.Join(viewer, "https://a.test")
	hub.Join(other, "https://b.test")

	hub.PublishTopic("https://a.test", "newComment", map[string]string{"url": "https://a.test"})

	assert.Equal(t, []string{"newComment"}, viewer.events())
	assert.Empty(t, other.events())
	assert.Equal(t, map[string]any{"url": "https://a.test"}, viewer.frames[0].Data)
}

func TestUserPublishIsRoutedServerSide(t *testing.T) {
	hub := NewHub()
	bobTab1 := &fakeSubscriber{}
	bobTab2 := &fakeSubscriber{}
	alice := &fakeSubscriber{}
	hub.Subscribe(bobTab1, "bob")
	hub.Subscribe(bobTab2, "bob")
	hub.Subscribe(alice, "alice")
	// joined to a topic but not subscribed as bob
	stranger := &fakeSubscriber{}
	hub.Join(stranger, "https://a.test")

	hub.PublishUser("bob", "notification", map[string]string{"id": "n1"})

	assert.Equal(t, []string{"notification"}, bobTab1.events())
	assert.Equal(t, []string{"notification"}, bobTab2.events())
	assert.Empty(t, alice.events())
	assert.Empty(t, stranger.events())
}

func TestLateJoinerMissesEarlierEvents(t *testing.T) {
	hub := NewHub()
	hub.PublishTopic("u", "newComment", nil)

	late := &fakeSubscriber{}
	hub.Join(late, "u")
	assert.Empty(t, late.events())
}

func TestLeaveAndRemove(t *testing.T) {
	hub := NewHub()
	s := &fakeSubscriber{}
	hub.Join(s, "a")
	hub.Join(s, "b")
	hub.Subscribe(s, "bob")
	assert.Equal(t, 1, hub.TopicSize("a"))

	hub.Leave(s, "a")
	hub.PublishTopic("a", "newComment", nil)
	assert.Empty(t, s.events())
	assert.Equal(t, 0, hub.TopicSize("a"))

	hub.Remove(s)
	hub.PublishTopic("b", "newComment", nil)
	hub.PublishUser("bob", "notification", nil)
	assert.Empty(t, s.events())
	assert.Equal(t, 0, hub.UserConnections("bob"))

	// removing twice is harmless
	hub.Remove(s)
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()
	slow := &fakeSubscriber{full: true}
	fast := &fakeSubscriber{}
	hub.Join(slow, "u")
	hub.Join(fast, "u")

	assert.Equal(t, 1, hub.deliver(scopeTopic, "u", []byte(`{"event":"x"}`)))
	assert.Equal(t, []string{"x"}, fast.events())
}

func TestUnencodablePayloadIsDropped(t *testing.T) {
	hub := NewHub()
	s := &fakeSubscriber{}
	hub.Join(s, "u")

	hub.PublishTopic("u", "bad", make(chan int))
	assert.Empty(t, s.events())
}

type recordingRelay struct {
	mu   sync.Mutex
	envs []Envelope
}

func (r *recordingRelay) Forward(env Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
}

func TestRelayForwardingAndReceive(t *testing.T) {
	a := NewHub()
	b := NewHub()
	relay := &recordingRelay{}
	a.SetRelay(relay)

	sub := &fakeSubscriber{}
	b.Subscribe(sub, "bob")

	a.PublishUser("bob", "notification", nil)
	require.Len(t, relay.envs, 1)
	env := relay.envs[0]
	assert.Equal(t, a.ID(), env.Origin)
	assert.Equal(t, scopeUser, env.Scope)

	// the origin hub ignores its own envelope
	a.receive(env)
	b.receive(env)
	assert.Equal(t, []string{"notification"}, sub.events())
}

func TestConcurrentJoinLeavePublish(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := &fakeSubscriber{}
			url := fmt.Sprintf("u%d", i%3)
			for j := 0; j < 50; j++ {
				hub.Join(s, url)
				hub.Subscribe(s, "bob")
				hub.PublishTopic(url, "newComment", j)
				hub.PublishUser("bob", "notification", j)
				hub.Leave(s, url)
			}
			hub.Remove(s)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.UserConnections("bob"))
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0, hub.TopicSize(fmt.Sprintf("u%d", i)))
	}
}
