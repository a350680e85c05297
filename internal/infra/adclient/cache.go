package adclient

import (
	"sync"
	"time"

	"ad-placement-service/internal/domain"
)

// poolEntry wraps a cached candidate pool with its expiration time.
type poolEntry struct {
	ads       []*domain.Advertisement
	expiresAt time.Time
}

// poolCache keeps candidate pools in memory, keyed by PlacementQuery.CacheKey.
// Expired entries are removed on read.
type poolCache struct {
	mu      sync.Mutex
	entries map[string]poolEntry
	ttl     time.Duration
	now     func() time.Time
}

func newPoolCache(ttl time.Duration) *poolCache {
	return &poolCache{
		entries: make(map[string]poolEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *poolCache) get(key string) ([]*domain.Advertisement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	return entry.ads, true
}

func (c *poolCache) set(key string, ads []*domain.Advertisement) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = poolEntry{
		ads:       ads,
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *poolCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]poolEntry)
}
