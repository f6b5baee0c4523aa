package progression

import "sync"

// EventType .
type EventType string

// event types
const (
	EventSnapshot EventType = "snapshot"
	EventWarning  EventType = "warning"
	EventClosed   EventType = "closed"
)

// Event engine change pushed to subscribers
type Event struct {
	Type    EventType `json:"type"`
	View    *View     `json:"view,omitempty"`
	Warning string    `json:"warning,omitempty"`
}

// Publisher .
type Publisher interface {
	Publish(userID, courseID string, e Event)
}

type sessionKey struct {
	userID   string
	courseID string
}

// Subscription events of one (user, course), C is closed by Close
type Subscription struct {
	C <-chan Event

	ch   chan Event
	hub  *Hub
	key  sessionKey
	once sync.Once
}

// Close stop receiving events
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub fan-out of engine events. A subscriber that falls behind misses events,
// the next snapshot carries the full state anyway.
type Hub struct {
	buffer int
	mu     sync.RWMutex
	subs   map[sessionKey]map[*Subscription]struct{}
}

var _ Publisher = &Hub{}

// NewHub buffer is the per subscriber queue length
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[sessionKey]map[*Subscription]struct{}),
	}
}

// Subscribe .
func (h *Hub) Subscribe(userID, courseID string) *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h, key: sessionKey{userID, courseID}}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.key]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sub.key] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish never blocks
func (h *Hub) Publish(userID, courseID string, e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[sessionKey{userID, courseID}] {
		select {
		case sub.ch <- e:
		default:
		}
	}
}

// Subscribers number of live subscriptions of a (user, course)
func (h *Hub) Subscribers(userID, courseID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionKey{userID, courseID}])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.key]
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.key)
	}
	close(sub.ch)
}
