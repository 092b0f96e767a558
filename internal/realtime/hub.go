// Package realtime fans comment events out to live websocket subscribers.
//
// Delivery is best effort and at most once: a subscriber that is not joined
// when an event is published never sees it.
package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Subscriber receives encoded frames. Deliver must not block; it reports false
// when the frame was dropped.
type Subscriber interface {
	Deliver(frame []byte) bool
}

// Frame is the server to client message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type scope string

const (
	scopeTopic scope = "topic"
	scopeUser  scope = "user"
)

// Relay mirrors local publishes to other server instances.
type Relay interface {
	Forward(env Envelope)
}

// Envelope is a published frame together with its routing key.
type Envelope struct {
	Origin string          `json:"origin"`
	Scope  scope           `json:"scope"`
	Key    string          `json:"key"`
	Frame  json.RawMessage `json:"frame"`
}

type membership struct {
	topics map[string]struct{}
	users  map[string]struct{}
}

// Hub keeps the per-topic and per-user subscriber registries.
type Hub struct {
	id string

	mu      sync.RWMutex
	topics  map[string]map[Subscriber]struct{}
	users   map[string]map[Subscriber]struct{}
	members map[Subscriber]*membership

	relay Relay
}

func NewHub() *Hub {
	return &Hub{
		id:      uuid.NewString(),
		topics:  make(map[string]map[Subscriber]struct{}),
		users:   make(map[string]map[Subscriber]struct{}),
		members: make(map[Subscriber]*membership),
	}
}

// ID identifies this hub among relayed instances.
func (h *Hub) ID() string { return h.id }

// SetRelay attaches a cross-instance relay. It must be called before the hub
// starts publishing.
func (h *Hub) SetRelay(r Relay) { h.relay = r }

func (h *Hub) member(s Subscriber) *membership {
	m, ok := h.members[s]
	if !ok {
		m = &membership{topics: map[string]struct{}{}, users: map[string]struct{}{}}
		h.members[s] = m
	}
	return m
}

func add(registry map[string]map[Subscriber]struct{}, key string, s Subscriber) {
	set, ok := registry[key]
	if !ok {
		set = make(map[Subscriber]struct{})
		registry[key] = set
	}
	set[s] = struct{}{}
}

func remove(registry map[string]map[Subscriber]struct{}, key string, s Subscriber) {
	set, ok := registry[key]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(registry, key)
	}
}

// Join adds s to the topic room for url.
func (h *Hub) Join(s Subscriber, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	add(h.topics, url, s)
	h.member(s).topics[url] = struct{}{}
}

func (h *Hub) Leave(s Subscriber, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	remove(h.topics, url, s)
	if m, ok := h.members[s]; ok {
		delete(m.topics, url)
	}
}

// Subscribe registers s as a connection of userID.
func (h *Hub) Subscribe(s Subscriber, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	add(h.users, userID, s)
	h.member(s).users[userID] = struct{}{}
}

func (h *Hub) Unsubscribe(s Subscriber, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	remove(h.users, userID, s)
	if m, ok := h.members[s]; ok {
		delete(m.users, userID)
	}
}

// Remove drops s from every room and user registration. Called on disconnect.
func (h *Hub) Remove(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.members[s]
	if !ok {
		return
	}
	for url := range m.topics {
		remove(h.topics, url, s)
	}
	for userID := range m.users {
		remove(h.users, userID, s)
	}
	delete(h.members, s)
}

// TopicSize is the number of subscribers joined to url.
func (h *Hub) TopicSize(url string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[url])
}

func (h *Hub) UserConnections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) PublishTopic(url, event string, payload any) {
	h.publish(scopeTopic, url, event, payload)
}

func (h *Hub) PublishUser(userID, event string, payload any) {
	h.publish(scopeUser, userID, event, payload)
}

func (h *Hub) publish(sc scope, key, event string, payload any) {
	frame, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		log.Printf("[hub] encode %s for %s %s: %v", event, sc, key, err)
		return
	}
	h.deliver(sc, key, frame)
	if h.relay != nil {
		h.relay.Forward(Envelope{Origin: h.id, Scope: sc, Key: key, Frame: frame})
	}
}

// deliver sends frame to the local subscribers registered under key.
func (h *Hub) deliver(sc scope, key string, frame []byte) int {
	registry := h.topics
	if sc == scopeUser {
		registry = h.users
	}

	h.mu.RLock()
	targets := make([]Subscriber, 0, len(registry[key]))
	for s := range registry[key] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if s.Deliver(frame) {
			delivered++
		} else {
			log.Printf("[hub] dropped frame for slow subscriber on %s %s", sc, key)
		}
	}
	return delivered
}

// receive handles an envelope relayed from another instance.
func (h *Hub) receive(env Envelope) {
	if env.Origin == h.id {
		return
	}
	switch env.Scope {
	case scopeTopic, scopeUser:
		h.deliver(env.Scope, env.Key, env.Frame)
	default:
		log.Printf("[hub] ignoring relayed envelope with scope %q", env.Scope)
	}
}
