// Package cache holds decoded images for the preview engine, keyed by
// resolved source key.
//
// Entries accumulate for the lifetime of an engine instance and are only
// ever cleared wholesale by refresh; there is no per-entry eviction. A
// key that failed to decode is remembered so the engine never retries it,
// matching the engine's silent best-effort error policy.
package cache

import (
	"image"
	"sync"
)

// Cache maps source keys to decoded images. First registration wins;
// later registrations for the same key are discarded.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]image.Image
	failed  map[string]struct{}
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]image.Image),
		failed:  make(map[string]struct{}),
	}
}

// Resolve returns the resource name for a cached key. The resource name
// is the key itself; the boolean reports presence.
func (c *Cache) Resolve(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.entries[key]; !ok {
		return "", false
	}
	return key, true
}

// Register stores a decoded image under key and returns its resource
// name. If the key is already present the existing entry is kept and
// Register reports false (first writer wins).
func (c *Cache) Register(key string, img image.Image) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		return key, false
	}
	c.entries[key] = img
	delete(c.failed, key)
	return key, true
}

// Image returns the decoded image cached under key.
func (c *Cache) Image(key string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	img, ok := c.entries[key]
	return img, ok
}

// MarkFailed records that key could not be decoded. Failed keys are not
// retried until the cache is cleared.
func (c *Cache) MarkFailed(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		return
	}
	c.failed[key] = struct{}{}
}

// Failed reports whether key previously failed to decode.
func (c *Cache) Failed(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.failed[key]
	return ok
}

// Clear drops every entry and every failure record.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]image.Image)
	c.failed = make(map[string]struct{})
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
