package entitlement

import (
	"sync"
	"time"
)

// Cache keeps resolved entitlements in process for a short TTL. A zero TTL
// disables caching.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result  Result
	expires time.Time
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// WithClock replaces the cache clock. Used by tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Get returns a copy of the cached result for userID if it has not expired.
func (c *Cache) Get(userID string) (*Result, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	r := e.result
	return &r, true
}

// Set stores a copy of r.
func (c *Cache) Set(r *Result) {
	if c.ttl <= 0 || r == nil {
		return
	}

	c.mu.Lock()
	c.entries[r.UserID] = cacheEntry{result: *r, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops the cached result for userID.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// Len returns the number of cached entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
