// Package broadcast provides a typed synchronous pub-sub hub used to publish
// state snapshots to observers.
package broadcast

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Handler receives a published value.
type Handler[T any] func(T)

type subscription[T any] struct {
	id      uint64
	handler Handler[T]
}

// Hub dispatches values of type T to subscribers in registration order.
type Hub[T any] struct {
	name   string
	logger *slog.Logger

	mu     sync.RWMutex
	subs   []subscription[T]
	nextID atomic.Uint64
}

// New creates a hub. The name is only used to label panic logs.
func New[T any](name string, logger *slog.Logger) *Hub[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub[T]{name: name, logger: logger}
}

// Subscribe registers handler and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (h *Hub[T]) Subscribe(handler Handler[T]) func() {
	id := h.nextID.Add(1)

	h.mu.Lock()
	h.subs = append(h.subs, subscription[T]{id: id, handler: handler})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *Hub[T]) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.subs {
		if sub.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers v to every handler registered at the time of the call.
// A panicking handler is recovered and logged; delivery continues.
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	subs := make([]subscription[T], len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	for _, sub := range subs {
		h.safeCall(sub.handler, v)
	}
}

// Len reports the number of active subscriptions.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub[T]) safeCall(handler Handler[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("broadcast handler panicked",
				"hub", h.name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	handler(v)
}
