// Package cache provides a generic idle-expiry cache. Every lookup extends an
// entry's lifetime, and evicted values are handed to an optional callback.
package cache

import (
	"sync"
	"time"
)

// item wraps a cached value with its expiration time
type item[T any] struct {
	value     T
	expiresAt time.Time
}

// Cache is a generic thread-safe cache with sliding TTL expiration
type Cache[T any] struct {
	items   map[string]item[T]
	mu      sync.Mutex
	ttl     time.Duration
	onEvict func(key string, value T)
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// New creates a cache whose entries expire after ttl without access.
// onEvict may be nil.
func New[T any](ttl time.Duration, onEvict func(key string, value T)) *Cache[T] {
	c := &Cache[T]{
		items:   make(map[string]item[T]),
		ttl:     ttl,
		onEvict: onEvict,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// GetOrCreate returns the live value for key, building and storing a new
// one with create when there is none. The bool is true when create ran.
func (c *Cache[T]) GetOrCreate(key string, create func() T) (T, bool) {
	c.mu.Lock()

	now := c.now()
	if it, exists := c.items[key]; exists {
		if !now.After(it.expiresAt) {
			it.expiresAt = now.Add(c.ttl)
			c.items[key] = it
			c.mu.Unlock()
			return it.value, false
		}
		delete(c.items, key)
		c.mu.Unlock()
		c.evict(key, it.value)
		c.mu.Lock()
	}

	// another caller may have filled the slot while evict ran
	if it, exists := c.items[key]; exists {
		c.mu.Unlock()
		return it.value, false
	}
	value := create()
	c.items[key] = item[T]{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return value, true
}

// Size returns the number of items (including expired)
func (c *Cache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the background cleanup goroutine and evicts everything
func (c *Cache[T]) Close() {
	c.once.Do(func() {
		close(c.stop)

		c.mu.Lock()
		items := c.items
		c.items = make(map[string]item[T])
		c.mu.Unlock()

		for key, it := range items {
			c.evict(key, it.value)
		}
	})
}

// cleanup runs periodically to remove expired items
func (c *Cache[T]) cleanup() {
	interval := c.ttl / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.RemoveExpired()
		case <-c.stop:
			return
		}
	}
}

// RemoveExpired evicts every entry past its deadline
func (c *Cache[T]) RemoveExpired() {
	c.mu.Lock()
	now := c.now()
	expired := make(map[string]T)
	for key, it := range c.items {
		if now.After(it.expiresAt) {
			expired[key] = it.value
			delete(c.items, key)
		}
	}
	c.mu.Unlock()

	for key, value := range expired {
		c.evict(key, value)
	}
}

func (c *Cache[T]) evict(key string, value T) {
	if c.onEvict != nil {
		c.onEvict(key, value)
	}
}
