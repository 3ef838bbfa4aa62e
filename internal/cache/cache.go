// Package cache implements the freshness cache that keeps upstream feed
// responses between requests. Entries carry the time they were stored;
// staleness is a property checked at read time against a caller-supplied
// threshold, never enforced by eviction.
package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	payload  T
	storedAt time.Time
}

// Cache is a keyed payload store with per-key timestamps. Writes replace the
// whole entry; there are no partial updates. Safe for concurrent use.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]

	// now is swappable so tests can walk the clock across the freshness
	// boundary deterministically.
	now func() time.Time
}

// New returns an empty cache using the wall clock.
func New[T any]() *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		now:     time.Now,
	}
}

// NewWithClock returns an empty cache reading time from now.
func NewWithClock[T any](now func() time.Time) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		now:     now,
	}
}

// Put stores payload under key with the current time, replacing any prior
// entry for that key.
func (c *Cache[T]) Put(key string, payload T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{payload: payload, storedAt: c.now()}
}

// Get returns the stored payload regardless of its age. Use IsStale to
// decide whether it is still usable.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.payload, ok
}

// IsStale reports whether the entry for key is older than threshold.
// A missing key is always stale.
func (c *Cache[T]) IsStale(key string, threshold time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return true
	}
	return c.now().Sub(e.storedAt) > threshold
}

// StoredAt returns the timestamp of the entry for key, if present.
func (c *Cache[T]) StoredAt(key string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.storedAt, ok
}

// Evict removes the entry for key, if any.
func (c *Cache[T]) Evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// EvictAll removes every entry.
func (c *Cache[T]) EvictAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
}

// EntryInfo describes one cached entry for the debug endpoint.
type EntryInfo struct {
	StoredAt   time.Time `json:"stored_at"`
	AgeMinutes float64   `json:"age_minutes"`
}

// Info returns a snapshot of the cache contents keyed by dataset.
func (c *Cache[T]) Info() map[string]EntryInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	info := make(map[string]EntryInfo, len(c.entries))
	for key, e := range c.entries {
		info[key] = EntryInfo{
			StoredAt:   e.storedAt,
			AgeMinutes: now.Sub(e.storedAt).Minutes(),
		}
	}
	return info
}
