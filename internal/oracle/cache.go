package oracle

import (
	"sync"
	"time"

	"github.com/bonsplit/bonsplit/internal/service"
)

// cacheEntry represents a cached correction result.
type cacheEntry struct {
	expiry time.Time
	result service.CorrectionResult
}

// correctionCache provides thread-safe caching for correction results.
// Receipts repeat product names constantly; one oracle round-trip per
// distinct name per TTL is plenty.
type correctionCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

// newCorrectionCache creates a new cache with the specified TTL.
func newCorrectionCache(ttl time.Duration) *correctionCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &correctionCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// get retrieves a result from the cache if it exists and hasn't expired.
func (c *correctionCache) get(key string) (service.CorrectionResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return service.CorrectionResult{}, false
	}

	if time.Now().After(entry.expiry) {
		return service.CorrectionResult{}, false
	}

	return entry.result, true
}

// set stores a result in the cache.
func (c *correctionCache) set(key string, result service.CorrectionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		result: result,
		expiry: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *correctionCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// size returns the number of entries in the cache.
func (c *correctionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *correctionCache) Close() {
	close(c.stopCh)
}
