package auth

import (
	"context"
	"sync"
	"time"
)

// UnauthorizedEvent is published whenever the transport observes a 401/403,
// no matter which caller triggered the request.
type UnauthorizedEvent struct {
	StatusCode int
	Path       string
	OccurredAt time.Time
}

// UnauthorizedHandler consumes unauthorized events. Handlers run on the
// publisher's goroutine and should return quickly.
type UnauthorizedHandler func(ctx context.Context, evt UnauthorizedEvent)

// AuthErrorBus decouples a request's failure from session teardown: the
// transport publishes here, the session controller subscribes, and the
// original caller still receives its own error. Injected dependency, never a
// package global.
type AuthErrorBus struct {
	mu   sync.RWMutex
	seq  int
	subs map[int]UnauthorizedHandler
}

// NewAuthErrorBus returns a bus with no subscribers.
func NewAuthErrorBus() *AuthErrorBus {
	return &AuthErrorBus{
		subs: map[int]UnauthorizedHandler{},
	}
}

// Subscribe registers a handler and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *AuthErrorBus) Subscribe(handler UnauthorizedHandler) func() {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	id := b.seq
	b.seq++
	b.subs[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish fans the event out to every subscriber.
func (b *AuthErrorBus) Publish(ctx context.Context, evt UnauthorizedEvent) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	b.mu.RLock()
	handlers := make([]UnauthorizedHandler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, evt)
	}
}
