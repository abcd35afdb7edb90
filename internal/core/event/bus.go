package event

import (
	"reflect"
	"sync"

	"go.uber.org/zap"
)

type queued struct {
	typ reflect.Type
	ev  any
}

// Bus is a double-buffered event bus. Events emitted in tick N are readable
// in tick N+1, in emission order. SwapBuffers() is called at tick start by
// EventDispatchSystem. Emit is safe from HTTP goroutines; Subscribe,
// SwapBuffers and DispatchAll belong to the tick loop.
type Bus struct {
	log *zap.Logger

	mu       sync.Mutex // protects handler registration
	handlers map[reflect.Type][]func(any)

	qmu   sync.Mutex // protects back
	front []queued
	back  []queued
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		log:      log,
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Emit queues an event into the back buffer (will be readable next tick).
func Emit[T any](b *Bus, event T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.qmu.Lock()
	b.back = append(b.back, queued{typ: t, ev: event})
	b.qmu.Unlock()
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// SwapBuffers rotates back→front and clears the new back buffer.
// Called once at tick start.
func (b *Bus) SwapBuffers() {
	b.qmu.Lock()
	defer b.qmu.Unlock()
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
// A handler that panics is logged and skipped; the rest still run.
func (b *Bus) DispatchAll() {
	for _, q := range b.front {
		b.mu.Lock()
		handlers := b.handlers[q.typ]
		b.mu.Unlock()
		for _, h := range handlers {
			b.safeCall(h, q)
		}
	}
}

func (b *Bus) safeCall(h func(any), q queued) {
	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error("事件處理器 panic 已恢復",
				zap.String("event", q.typ.String()),
				zap.Any("panic", rec),
			)
		}
	}()
	h(q.ev)
}
