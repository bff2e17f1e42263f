// Package cache memoizes expensive fetches in a bounded, least-recently-used map.
package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCapacity is the entry limit used when none is configured.
const DefaultCapacity = 32

// FetchFunc produces the value for a key on a cache miss.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Observer receives cache events. Any field may be nil.
type Observer struct {
	OnHit   func()
	OnMiss  func()
	OnEvict func(key string)
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRU is a fixed-capacity cache that evicts the least recently used entry.
// Entries never expire; they leave only through eviction, Remove, Purge or
// are replaced by Set / Refresh. Safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	items    map[K]*list.Element
	group    singleflight.Group
	observer Observer
}

// New creates an LRU holding at most capacity entries (minimum 1).
func New[K comparable, V any](capacity int, obs Observer) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[K, V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[K]*list.Element, capacity),
		observer: obs,
	}
}

// Capacity returns the maximum number of entries.
func (c *LRU[K, V]) Capacity() int { return c.capacity }

// Get returns the cached value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// Peek returns the cached value without touching its recency.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		return el.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Set stores value under key as the most recently used entry, evicting the
// least recently used entry when the cache is over capacity.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	evicted, didEvict := c.setLocked(key, value)
	c.mu.Unlock()

	if didEvict && c.observer.OnEvict != nil {
		c.observer.OnEvict(fmt.Sprint(evicted))
	}
}

// setLocked must be called with mu held.
func (c *LRU[K, V]) setLocked(key K, value V) (evicted K, didEvict bool) {
	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(el)
		return evicted, false
	}
	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	if c.order.Len() <= c.capacity {
		return evicted, false
	}
	oldest := c.order.Back()
	c.order.Remove(oldest)
	evicted = oldest.Value.(*entry[K, V]).key
	delete(c.items, evicted)
	return evicted, true
}

// GetOrFetch returns the cached value for key, or calls fetch and caches its
// result. Concurrent misses for the same key share a single fetch. Errors
// are returned to every waiting caller and are not cached.
func (c *LRU[K, V]) GetOrFetch(ctx context.Context, key K, fetch FetchFunc[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		if c.observer.OnHit != nil {
			c.observer.OnHit()
		}
		return v, nil
	}
	if c.observer.OnMiss != nil {
		c.observer.OnMiss()
	}
	return c.load(ctx, key, fetch, false)
}

// Refresh re-runs fetch for key and replaces the cached value on success.
// On failure the previous value, if any, stays cached.
func (c *LRU[K, V]) Refresh(ctx context.Context, key K, fetch FetchFunc[V]) (V, error) {
	return c.load(ctx, key, fetch, true)
}

// load runs fetch once per key across concurrent callers. The shared fetch
// is detached from any single caller's cancellation; each caller stops
// waiting when its own ctx is done.
func (c *LRU[K, V]) load(ctx context.Context, key K, fetch FetchFunc[V], force bool) (V, error) {
	var zero V
	flightKey := fmt.Sprintf("%t/%v", force, key)
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		if !force {
			// A concurrent caller may have filled the entry while we waited.
			if v, ok := c.Peek(key); ok {
				return v, nil
			}
		}
		v, err := fetch(fetchCtx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})

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

// Remove deletes key and reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
	return ok
}

// Purge drops every entry.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[K]*list.Element, c.capacity)
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns the cached keys, most recently used first.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[K, V]).key)
	}
	return keys
}

// Contains reports whether key is cached without touching its recency.
func (c *LRU[K, V]) Contains(key K) bool {
	_, ok := c.Peek(key)
	return ok
}
