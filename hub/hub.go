// Package hub is a fan-out publish/subscribe channel.
//
// Every subscriber gets its own bounded buffer. When a buffer is full the
// oldest pending value is discarded to make room, so Publish never blocks
// no matter how slow a subscriber is.
package hub

import (
	"sync"
	"sync/atomic"
)

// Hub broadcasts values of type T to all current subscribers.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription[T]
	nextID uint64
	buffer int
	closed bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a hub whose subscribers buffer up to buffer values.
func New[T any](buffer int) *Hub[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub[T]{
		subs:   make(map[uint64]*Subscription[T]),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. It only sees values published after
// this call returns. Subscribing to a closed hub yields a closed subscription.
func (h *Hub[T]) Subscribe() *Subscription[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &Subscription[T]{hub: h, ch: make(chan T, h.buffer)}
	if h.closed {
		s.closed = true
		close(s.ch)
		return s
	}
	h.nextID++
	s.id = h.nextID
	h.subs[s.id] = s
	return s
}

// Publish delivers v to every subscriber and returns how many there were.
func (h *Hub[T]) Publish(v T) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0
	}
	h.published.Add(1)
	for _, s := range h.subs {
		if !s.offer(v) {
			h.dropped.Add(1)
		}
	}
	return len(h.subs)
}

// Len returns the number of live subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Published returns the number of Publish calls that reached an open hub.
func (h *Hub[T]) Published() uint64 { return h.published.Load() }

// Dropped returns the number of values discarded across all subscribers.
func (h *Hub[T]) Dropped() uint64 { return h.dropped.Load() }

// Close closes every subscription; later publishes are no-ops.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, s := range h.subs {
		s.closed = true
		close(s.ch)
		delete(h.subs, id)
	}
}

func (h *Hub[T]) remove(s *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(h.subs, s.id)
	close(s.ch)
}

// Subscription is one subscriber's view of a hub.
type Subscription[T any] struct {
	id  uint64
	hub *Hub[T]
	ch  chan T

	// guarded by hub.mu
	closed bool

	dropped atomic.Uint64
}

// C is closed when the subscription or its hub is closed.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Dropped returns how many values this subscriber lost to overflow.
func (s *Subscription[T]) Dropped() uint64 { return s.dropped.Load() }

// Close unsubscribes. Safe to call more than once.
func (s *Subscription[T]) Close() { s.hub.remove(s) }

// offer must be called with hub.mu held. It reports false if a value had to
// be discarded.
func (s *Subscription[T]) offer(v T) bool {
	select {
	case s.ch <- v:
		return true
	default:
	}
	// Full: evict the oldest pending value. The reader may have drained it
	// in the meantime, in which case nothing is lost.
	lost := false
	select {
	case <-s.ch:
		lost = true
	default:
	}
	select {
	case s.ch <- v:
	default:
		lost = true
	}
	if lost {
		s.dropped.Add(1)
	}
	return !lost
}
