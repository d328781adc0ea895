package sse

import (
	"log/slog"
	"sync"
)

const subscriberBuffer = 16

// Event is one server-sent event. Data is JSON encoded by the stream handler.
type Event struct {
	Event string
	Data  any
}

// Hub fans events out to connected subscribers, grouped by subscriber ID.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	dropped     uint64
	closed      bool
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a stream for subscriberID. The returned cleanup closes
// the channel and is safe to call more than once.
func (h *Hub) Subscribe(subscriberID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	if h.subscribers[subscriberID] == nil {
		h.subscribers[subscriberID] = make(map[chan Event]struct{})
	}
	h.subscribers[subscriberID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subscribers[subscriberID][ch]; !ok {
				return
			}
			delete(h.subscribers[subscriberID], ch)
			close(ch)
			if len(h.subscribers[subscriberID]) == 0 {
				delete(h.subscribers, subscriberID)
			}
		})
	}

	return ch, cleanup
}

// Publish sends an event to every stream of one subscriber.
func (h *Hub) Publish(subscriberID string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked(h.subscribers[subscriberID], event)
}

// Broadcast sends an event to every connected stream.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.subscribers {
		h.sendLocked(subs, event)
	}
}

// sendLocked never blocks: a slow stream loses the event.
func (h *Hub) sendLocked(subs map[chan Event]struct{}, event Event) {
	for ch := range subs {
		select {
		case ch <- event:
		default:
			h.dropped++
			slog.Warn("SSE subscriber buffer full, event dropped", "event", event.Event)
		}
	}
}

// Close ends every stream. Later subscriptions get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, subs := range h.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(h.subscribers, id)
	}
}

func (h *Hub) SubscriberCount(subscriberID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[subscriberID])
}

// TotalSubscribers returns the number of open streams across all subscribers.
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}

func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
