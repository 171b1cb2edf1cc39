package app

import (
	"sync"
	"time"
)

// EventKind names what changed in a session.
type EventKind string

const (
	EventOpened       EventKind = "opened"
	EventJoined       EventKind = "joined"
	EventLaunched     EventKind = "launched"
	EventAdvanced     EventKind = "advanced"
	EventAnswered     EventKind = "answered"
	EventFinished     EventKind = "finished"
	EventAutoFinished EventKind = "auto_finished"
)

// Event notifies subscribers that a session changed. It carries no state;
// subscribers re-read through the service so polling stays authoritative.
type Event struct {
	SessionID int64     `json:"session_id"`
	Kind      EventKind `json:"kind"`
	At        time.Time `json:"at"`
}

// Hub fans session events out to live subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[int64]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[int64]map[chan Event]struct{})}
}

// Subscribe registers a buffered channel for the session. The caller must
// invoke the returned cancel function to release it.
func (h *Hub) Subscribe(sessionID int64) (<-chan Event, func()) {
	ch := make(chan Event, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[sessionID]
	if !ok {
		subs = make(map[chan Event]struct{})
		h.subscribers[sessionID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[sessionID]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.subscribers, sessionID)
		}
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber of its session. A full channel
// loses its oldest event instead of blocking the publisher.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[ev.SessionID] {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

// Subscribers reports how many channels listen on the session.
func (h *Hub) Subscribers(sessionID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[sessionID])
}
