package cache

import (
	"strings"
	"sync"
	"time"
)

// Entry represents a cached value with expiration
type Entry struct {
	Value     any
	ExpiresAt time.Time
}

// Cache is a small in-process TTL cache. It backs the client list endpoint;
// write operations invalidate by key prefix.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*Entry
}

// New creates a new cache
func New() *Cache {
	return &Cache{items: map[string]*Entry{}}
}

// Set stores a value in the cache with a given TTL
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = &Entry{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Get retrieves a value from the cache if it hasn't expired
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, exists := c.items[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Value, true
}

// Delete removes a key from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Invalidate removes all items whose key starts with prefix
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
}
