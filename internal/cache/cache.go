// Package cache provides a small in-process LRU cache with per-entry TTL.
// The dashboard uses it to absorb bursts of identical cloud requests: a
// dashboard refresh asks for the same day's logs, summary and payment list
// over and over, and the upstream API is slow enough that re-fetching on
// every page load is wasteful.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// TTLCache is a fixed-capacity LRU cache whose entries expire after a
// configurable duration. Expired entries are dropped lazily on access and
// eagerly by Sweep. All methods are safe for concurrent use.
type TTLCache[T any] struct {
	mu      sync.Mutex
	cap     int
	ttl     time.Duration
	order   *list.List
	entries map[string]*list.Element
	now     func() time.Time
}

type entry[T any] struct {
	key     string
	value   T
	expires time.Time
}

// New returns a TTLCache holding at most cap entries, each valid for ttl
// after being set.
func New[T any](cap int, ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		cap:     cap,
		ttl:     ttl,
		order:   list.New(),
		entries: make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or the zero value and false when
// the key is absent or expired.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[T])
	if c.now().After(e.expires) {
		c.drop(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.value, true
}

// Set stores value under key, resetting its TTL. The least recently used
// entry is evicted when the cache is full.
func (c *TTLCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expires: c.now().Add(c.ttl)}
	if el, ok := c.entries[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(e)
	if c.order.Len() > c.cap {
		if oldest := c.order.Back(); oldest != nil {
			c.drop(oldest)
		}
	}
}

// Invalidate removes key from the cache if present.
func (c *TTLCache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.drop(el)
	}
}

// Len reports the number of entries currently held, expired or not.
func (c *TTLCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *TTLCache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var stale []*list.Element
	for el := c.order.Front(); el != nil; el = el.Next() {
		if now.After(el.Value.(*entry[T]).expires) {
			stale = append(stale, el)
		}
	}
	for _, el := range stale {
		c.drop(el)
	}
	return len(stale)
}

func (c *TTLCache[T]) drop(el *list.Element) {
	delete(c.entries, el.Value.(*entry[T]).key)
	c.order.Remove(el)
}
