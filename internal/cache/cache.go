// Package cache provides the in-memory TTL cache shared by concurrent request handlers.
package cache

import (
	"sync"
	"time"

	"github.com/unklstewy/whatdatplane/internal/metrics"
)

// entry is a cached value and the instant after which it is treated as absent.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// options are shared by every Cache instantiation.
type options struct {
	now func() time.Time
}

// Option configures a Cache.
type Option func(*options)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Cache is a concurrency-safe key/value store with per-entry expiry.
//
// Expired entries are removed lazily when read and in bulk by Sweep; nothing
// guarantees at most one concurrent fill per key.
type Cache[V any] struct {
	name  string
	mu    sync.Mutex
	items map[string]entry[V]
	now   func() time.Time
}

// New creates an empty cache. name labels its metrics and sweep logs.
func New[V any](name string, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		name:  name,
		items: make(map[string]entry[V]),
		now:   o.now,
	}
}

// Name returns the cache's metric label.
func (c *Cache[V]) Name() string {
	return c.name
}

// Set stores value under key for ttl. A non-positive ttl stores nothing.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
	n := len(c.items)
	c.mu.Unlock()

	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(n))
}

// Get returns the value for key if present and not expired. An expired entry is
// removed as a side effect.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	e, ok := c.items[key]
	expired := ok && c.now().After(e.expiresAt)
	if expired {
		delete(c.items, key)
	}
	n := len(c.items)
	c.mu.Unlock()

	if expired {
		metrics.CacheEvictions.WithLabelValues(c.name).Inc()
		metrics.CacheEntries.WithLabelValues(c.name).Set(float64(n))
	}
	if !ok || expired {
		metrics.CacheRequests.WithLabelValues(c.name, "miss").Inc()
		var zero V
		return zero, false
	}
	metrics.CacheRequests.WithLabelValues(c.name, "hit").Inc()
	return e.value, true
}

// Has reports whether key holds an unexpired value, with the same lazy removal as Get.
func (c *Cache[V]) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Len returns the number of stored entries, including expired ones not yet removed.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache[V]) Sweep() int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for key, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	n := len(c.items)
	c.mu.Unlock()

	metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(removed))
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(n))
	return removed
}
