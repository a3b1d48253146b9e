// Package realtime fans comment events out to subscribers of a post.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventNewComment     EventType = "new_comment"
	EventCommentEdited  EventType = "comment_edited"
	EventReactionAdded  EventType = "reaction_added"
	EventCommentRemoved EventType = "comment_removed"
)

// Event is what subscribers receive. Post scopes delivery and is not serialized.
type Event struct {
	Type    EventType   `json:"type"`
	Post    string      `json:"-"`
	Payload interface{} `json:"payload"`
}

// Subscriber receives events for Post, or for every post when Post is empty.
type Subscriber struct {
	ID   string
	Post string
	Send chan Event
}

// Hub maintains the set of subscribers and broadcasts events to them.
type Hub struct {
	subscribers map[*Subscriber]struct{}

	register   chan *Subscriber
	unregister chan *Subscriber
	broadcast  chan Event

	done      chan struct{}
	closeOnce sync.Once

	mu      sync.RWMutex
	buffer  int
	dropped atomic.Int64
}

// NewHub creates a hub whose subscribers buffer up to buffer events each.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan Event, 256),
		done:        make(chan struct{}),
		buffer:      buffer,
	}
}

// Run starts the hub's event loop. It returns when ctx is cancelled or Close is called,
// closing every subscriber channel on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return

		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = struct{}{}
			h.mu.Unlock()
			log.Debug().Str("subscriber", sub.ID).Str("post", sub.Post).Msg("realtime subscriber connected")

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.Send)
			}
			h.mu.Unlock()
			log.Debug().Str("subscriber", sub.ID).Msg("realtime subscriber disconnected")

		case ev := <-h.broadcast:
			h.mu.RLock()
			for sub := range h.subscribers {
				if sub.Post != "" && sub.Post != ev.Post {
					continue
				}
				select {
				case sub.Send <- ev:
				default:
					// Slow subscriber, skip
					h.dropped.Add(1)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) shutdown() {
	h.closeOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		close(sub.Send)
		delete(h.subscribers, sub)
	}
}

// Subscribe registers a subscriber for post. After the hub has stopped the returned
// channel is already closed.
func (h *Hub) Subscribe(post string) *Subscriber {
	sub := &Subscriber{
		ID:   uuid.NewString(),
		Post: post,
		Send: make(chan Event, h.buffer),
	}
	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.Send)
	}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Publish queues ev for delivery without blocking. It reports false when the event was dropped.
func (h *Hub) Publish(ev Event) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.broadcast <- ev:
		return true
	default:
		h.dropped.Add(1)
		log.Warn().Str("type", string(ev.Type)).Msg("realtime broadcast queue full, event dropped")
		return false
	}
}

// Close stops Run. It is safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
