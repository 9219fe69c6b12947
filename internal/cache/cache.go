package cache

import (
	"sync"
	"time"
)

// Cache is an in-process map whose entries expire after a fixed TTL.
// Expired entries are dropped lazily on access. It backs the single
// instance OAuth state store, so the working set stays small.
type Cache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]item
}

type item struct {
	val       any
	expiresAt time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &Cache{
		ttl:   ttl,
		items: make(map[string]item),
	}
}

func (c *Cache) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{val: val, expiresAt: time.Now().Add(c.ttl)}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]

	if !ok {
		return nil, false
	}

	if time.Now().After(it.expiresAt) {
		delete(c.items, key)
		return nil, false
	}

	return it.val, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len reports live entries only; expired ones are purged on the way.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	for k, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, k)
		}
	}

	return len(c.items)
}
