package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/CreativeUnicorns/addonprefs"
)

const gcInterval = time.Minute

// item represents a single cache item with a value and an expiration time.
type item struct {
	value      []byte
	expiration time.Time
}

func (it item) expired(now time.Time) bool {
	return !it.expiration.IsZero() && now.After(it.expiration)
}

// MemoryCache is an in-process Cache. Expired entries read as misses and are
// swept by a background goroutine until Close.
type MemoryCache struct {
	mu        sync.RWMutex
	items     map[string]item
	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache initializes a new MemoryCache and starts its sweeper.
func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{
		items: make(map[string]item),
		stop:  make(chan struct{}),
	}
	go cache.gc(gcInterval)
	return cache
}

// Get returns a copy of the cached bytes, or addonprefs.ErrNotFound on a miss.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, exists := c.items[key]
	if !exists || it.expired(time.Now()) {
		return nil, addonprefs.ErrNotFound
	}
	return slices.Clone(it.value), nil
}

// Set stores value. A ttl of zero or less never expires.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiration time.Time
	if ttl > 0 {
		expiration = time.Now().Add(ttl)
	}

	c.items[key] = item{
		value:      slices.Clone(value),
		expiration: expiration,
	}
	return nil
}

// Delete removes a key. Missing keys are not an error.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Close stops the sweeper and drops every entry. It is safe to call twice.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
	})

	c.mu.Lock()
	c.items = make(map[string]item)
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) gc(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep(time.Now())
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryCache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, it := range c.items {
		if it.expired(now) {
			delete(c.items, key)
		}
	}
}
