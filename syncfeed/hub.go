package syncfeed

import (
	"sync"

	"github.com/achievement-hub/api/pkg/logger"
)

// Hub fans one source feed out to per-session subscribers, so the server
// holds a single NOTIFY connection however many sessions are live.
type Hub struct {
	source Feed

	mu   sync.Mutex
	subs map[*subscription]bool
}

func NewHub(source Feed) *Hub {
	hub := &Hub{
		source: source,
		subs:   make(map[*subscription]bool),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for event := range h.source.Events() {
		h.mu.Lock()
		for sub := range h.subs {
			select {
			case sub.events <- event:
			default:
				// A stalled session must not block the others; it will
				// re-prime from the store on its next sign-in.
				logger.Warn("sync hub dropped event for slow subscriber")
			}
		}
		h.mu.Unlock()
	}

	h.mu.Lock()
	for sub := range h.subs {
		close(sub.events)
		delete(h.subs, sub)
	}
	h.mu.Unlock()
}

// Subscribe returns a session-scoped feed. Closing it detaches from the hub.
func (h *Hub) Subscribe() Feed {
	sub := &subscription{
		hub:    h,
		events: make(chan Event, 64),
	}
	h.mu.Lock()
	h.subs[sub] = true
	h.mu.Unlock()
	return sub
}

// Close shuts the source feed; run drains and closes every subscriber.
func (h *Hub) Close() error {
	return h.source.Close()
}

type subscription struct {
	hub    *Hub
	events chan Event
	once   sync.Once
}

func (s *subscription) Events() <-chan Event {
	return s.events
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if s.hub.subs[s] {
			delete(s.hub.subs, s)
			close(s.events)
		}
		s.hub.mu.Unlock()
	})
	return nil
}
