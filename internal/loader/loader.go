// Package loader batches and caches relation lookups for the lifetime of one
// request.
//
// Load only schedules a key and returns a thunk. The first thunk that is
// invoked dispatches every key scheduled so far in a single fetch. Because the
// GraphQL executor resolves thunks breadth first, all category fields of a
// product list are scheduled before any of them is forced.
package loader

import (
	"context"
	"sync"
)

// BatchFunc fetches the values for keys. Keys missing from the returned map
// resolve to the zero value.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

type Thunk[V any] func() (V, error)

// BatchObserver is told the size of every dispatched batch.
type BatchObserver func(name string, keys int, err error)

type Loader[K comparable, V any] struct {
	name    string
	fetch   BatchFunc[K, V]
	observe BatchObserver

	mu      sync.Mutex
	open    *batch[K, V]
	entries map[K]*batch[K, V]
}

type batch[K comparable, V any] struct {
	keys    []K
	once    sync.Once
	results map[K]V
	err     error
}

func New[K comparable, V any](name string, fetch BatchFunc[K, V], observe BatchObserver) *Loader[K, V] {
	return &Loader[K, V]{
		name:    name,
		fetch:   fetch,
		observe: observe,
		entries: make(map[K]*batch[K, V]),
	}
}

// Load schedules key and returns a thunk for its value. A key that is already
// pending or resolved is not scheduled again.
func (l *Loader[K, V]) Load(ctx context.Context, key K) Thunk[V] {
	l.mu.Lock()
	b, ok := l.entries[key]
	if !ok {
		if l.open == nil {
			l.open = &batch[K, V]{}
		}
		b = l.open
		b.keys = append(b.keys, key)
		l.entries[key] = b
	}
	l.mu.Unlock()

	return func() (V, error) {
		b.once.Do(func() { l.dispatch(ctx, b) })
		if b.err != nil {
			var zero V
			return zero, b.err
		}
		return b.results[key], nil
	}
}

// LoadMany schedules every key and returns a thunk for all values in order.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) Thunk[[]V] {
	thunks := make([]Thunk[V], len(keys))
	for i, k := range keys {
		thunks[i] = l.Load(ctx, k)
	}
	return func() ([]V, error) {
		out := make([]V, len(thunks))
		for i, th := range thunks {
			v, err := th()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
}

func (l *Loader[K, V]) dispatch(ctx context.Context, b *batch[K, V]) {
	l.mu.Lock()
	if l.open == b {
		l.open = nil
	}
	keys := b.keys
	l.mu.Unlock()

	results, err := l.fetch(ctx, keys)
	if l.observe != nil {
		l.observe(l.name, len(keys), err)
	}
	if err != nil {
		b.err = err
		// failed keys may be retried by a later Load
		l.mu.Lock()
		for _, k := range keys {
			if l.entries[k] == b {
				delete(l.entries, k)
			}
		}
		l.mu.Unlock()
		return
	}
	if results == nil {
		results = map[K]V{}
	}
	b.results = results
}
