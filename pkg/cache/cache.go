package cache

import (
	"sync"
	"time"
)

// entry is a cached value with the time it was stored
type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a thread-safe TTL cache keyed by string
type Cache[V any] struct {
	data     map[string]entry[V]
	mutex    sync.RWMutex
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Cache whose entries expire after ttl. A janitor goroutine
// removes expired entries every ttl until Stop is called.
func New[V any](ttl time.Duration) *Cache[V] {
	c := &Cache[V]{
		data:   make(map[string]entry[V]),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves a value from the cache if it exists and hasn't expired
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.data[key]
	if !exists || time.Since(e.storedAt) > c.ttl {
		var zero V
		return zero, false
	}

	return e.value, true
}

// Set stores a value in the cache with the current timestamp
func (c *Cache[V]) Set(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = entry[V]{value: value, storedAt: time.Now()}
}

// Clear removes all entries from the cache
func (c *Cache[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]entry[V])
}

// Size returns the number of entries in the cache, expired ones included
func (c *Cache[V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.data)
}

func (c *Cache[V]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cache[V]) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, e := range c.data {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.data, key)
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
