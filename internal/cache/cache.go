// Package cache provides the in-memory response cache shared by every widget.
package cache

import (
	"sort"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL maps keys to values that expire. Expired entries are evicted lazily,
// by the Get that finds them; there is no capacity bound and no background
// sweeper.
type TTL[V any] struct {
	mu       sync.Mutex
	entries  map[string]entry[V]
	clockNow func() time.Time
}

type Option func(*options)

type options struct {
	clockNow func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clockNow = now }
}

func New[V any](opts ...Option) *TTL[V] {
	o := options{clockNow: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTL[V]{
		entries:  make(map[string]entry[V]),
		clockNow: o.clockNow,
	}
}

// Get returns the value for key while it is unexpired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !c.clockNow().Before(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry and its expiry.
func (c *TTL[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: c.clockNow().Add(ttl)}
}

func (c *TTL[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *TTL[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Size counts stored entries, including expired ones not yet looked up.
func (c *TTL[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the stored keys in sorted order.
func (c *TTL[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
