package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/leofalp/antitok/providers/cache"
	"github.com/leofalp/antitok/providers/observability"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means never
}

// Cache is a concurrency-safe map with per-entry expiry. Expired entries are
// dropped lazily when read and by Sweep.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

var _ cache.Provider = (*Cache)(nil)

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry), now: time.Now}
}

// Get returns a copy of the stored value.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.expired(e) {
		c.mu.Lock()
		if current, still := c.entries[key]; still && c.expired(current) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		ok = false
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventCacheLookup,
			observability.String(observability.AttrCacheBackend, "inmemory"),
			observability.String(observability.AttrCacheKey, key),
			observability.Bool(observability.AttrCacheHit, ok),
		)
	}

	if !ok {
		return nil, cache.ErrMiss
	}
	return slices.Clone(e.value), nil
}

// Set stores a copy of value. A non-positive ttl never expires.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: slices.Clone(value)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Delete removes key; a missing key is not an error.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len counts entries, including expired ones not yet swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes every expired entry and reports how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *Cache) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}
