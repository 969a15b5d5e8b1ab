// Package eventbus is a small typed in-process event dispatcher. The middleware
// publishes request lifecycle events to it; tracing and logging subscribe.
package eventbus

import (
	"context"
	"reflect"
	"sync"
)

// Handler processes events of type T.
type Handler[T any] func(context.Context, T)

type subscription struct {
	fn func(context.Context, any)
}

// Bus dispatches events to the handlers subscribed for their dynamic type.
// A nil *Bus is valid and drops everything published to it.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]*subscription
}

// New creates an empty Bus.
func New() *Bus { return &Bus{handlers: make(map[reflect.Type][]*subscription)} }

func (b *Bus) subscribe(t reflect.Type, s *subscription) (unsubscribe func()) {
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.handlers[t]
			for i, cur := range subs {
				if cur == s {
					subs = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			if len(subs) == 0 {
				delete(b.handlers, t)
			} else {
				b.handlers[t] = subs
			}
		})
	}
}

func (b *Bus) emit(ctx context.Context, t reflect.Type, e any) {
	b.mu.RLock()
	subs := b.handlers[t]
	if len(subs) == 0 {
		b.mu.RUnlock()
		return
	}
	copied := append([]*subscription(nil), subs...)
	b.mu.RUnlock()
	for _, s := range copied {
		s.fn(ctx, e)
	}
}

// Len reports how many handlers are subscribed for events of type T.
func Len[T any](b *Bus) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[typeOf[T]()])
}

// Subscribe registers h on b for events of type T. Subscribing to a nil bus
// is a no-op.
func Subscribe[T any](b *Bus, h Handler[T]) (unsubscribe func()) {
	if b == nil {
		return func() {}
	}
	s := &subscription{fn: func(ctx context.Context, v any) { h(ctx, v.(T)) }}
	return b.subscribe(typeOf[T](), s)
}

// Publish sends e to every handler subscribed on b for type T. Handlers run
// synchronously on the caller's goroutine, in subscription order.
func Publish[T any](ctx context.Context, b *Bus, e T) {
	if b == nil {
		return
	}
	b.emit(ctx, typeOf[T](), e)
}

func typeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }
