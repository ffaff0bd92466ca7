// Package cache provides a small keyed cache whose entries expire after a
// caller-chosen time-to-live.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader produces the value for a key on a cache miss.
type Loader[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTL memoizes loader results per key. Concurrent callers on a cold key
// share one load, and the lock is not held while the loader runs, so other
// keys and Invalidate are never blocked behind a slow load. Failed loads
// are not cached.
type TTL[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	flight  singleflight.Group
	now     func() time.Time
}

// New creates an empty cache.
func New[V any]() *TTL[V] {
	return &TTL[V]{entries: make(map[string]entry[V]), now: time.Now}
}

// Get returns the cached value for key, calling loader when the entry is
// missing or older than ttl. The shared load runs with the context of the
// caller that started it; a waiter whose ctx ends returns early.
func (c *TTL[V]) Get(ctx context.Context, key string, ttl time.Duration, loader Loader[V]) (V, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	ch := c.flight.DoChan(key, func() (interface{}, error) {
		// A flight started after the previous one stored its value.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = entry[V]{value: v, expires: c.now().Add(ttl)}
		c.mu.Unlock()
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

func (c *TTL[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expires) {
		return e.value, true
	}
	var zero V
	return zero, false
}

// Invalidate drops key so the next Get reloads it. A load already in
// flight still completes for its waiters.
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.flight.Forget(key)
}
