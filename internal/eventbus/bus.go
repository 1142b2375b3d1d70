package eventbus

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
)

// Handler handles one published event.
type Handler[E any] func(ctx context.Context, event E) error

// Bus dispatches events of type E to the handlers subscribed to key K.
type Bus[K comparable, E any] struct {
	mutex       sync.RWMutex
	subscribers map[K]map[uint64]Handler[E]
	counter     uint64
}

func NewBus[K comparable, E any]() *Bus[K, E] {
	return &Bus[K, E]{
		subscribers: make(map[K]map[uint64]Handler[E]),
	}
}

// Subscribe registers handler for key and returns a func removing it.
func (b *Bus[K, E]) Subscribe(key K, handler Handler[E]) func() {
	if handler == nil {
		return func() {}
	}
	id := atomic.AddUint64(&b.counter, 1)
	b.mutex.Lock()
	if b.subscribers[key] == nil {
		b.subscribers[key] = make(map[uint64]Handler[E])
	}
	b.subscribers[key][id] = handler
	b.mutex.Unlock()
	return func() {
		b.mutex.Lock()
		handlers, ok := b.subscribers[key]
		if ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(b.subscribers, key)
			}
		}
		b.mutex.Unlock()
	}
}

// Publish calls every handler of key in subscription order and joins
// their errors.
func (b *Bus[K, E]) Publish(ctx context.Context, key K, event E) error {
	b.mutex.RLock()
	handlersMap := b.subscribers[key]
	ids := make([]uint64, 0, len(handlersMap))
	for id := range handlersMap {
		ids = append(ids, id)
	}
	handlers := make(map[uint64]Handler[E], len(handlersMap))
	for id, h := range handlersMap {
		handlers[id] = h
	}
	b.mutex.RUnlock()

	slices.Sort(ids)
	var errs []error
	for _, id := range ids {
		if err := handlers[id](ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Len reports how many handlers are subscribed to key.
func (b *Bus[K, E]) Len(key K) int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.subscribers[key])
}
