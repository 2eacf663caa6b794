package data

import (
	"sync"
	"time"

	"fuel-reconcile/internal/model"
)

// CacheEntry is a cached dataset.
type CacheEntry struct {
	Dataset   *model.Dataset
	ExpiresAt time.Time
}

// ResponseCache keeps fleet API datasets in memory for a TTL. Cached datasets
// are shared between callers and must be treated as read-only.
// A nil *ResponseCache is a valid, disabled cache.
type ResponseCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewResponseCache starts a cache with the given TTL. It returns nil (caching
// disabled) when ttl is not positive.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		return nil
	}
	c := &ResponseCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go c.cleanup(cleanupInterval(ttl))
	return c
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < 5*time.Minute {
		return ttl
	}
	return 5 * time.Minute
}

// Get retrieves a cached dataset if available and not expired.
func (c *ResponseCache) Get(key string) (*model.Dataset, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists || c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Dataset, true
}

// Set stores a dataset in the cache.
func (c *ResponseCache) Set(key string, ds *model.Dataset) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Dataset:   ds,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Len is the number of entries, expired ones included until the next sweep.
func (c *ResponseCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Clear removes all entries from the cache.
func (c *ResponseCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

// Close stops the cleanup goroutine.
func (c *ResponseCache) Close() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *ResponseCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *ResponseCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}
