// Package cache holds derived responses, such as journal statistics, in
// ristretto with a TTL. Writers invalidate through the cache so a read that
// started before a mutation cannot store its result after it.
package cache

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

type Cache struct {
	c   *ristretto.Cache
	ttl time.Duration

	// mu orders Invalidate against SetAt; gen counts invalidations.
	mu  sync.Mutex
	gen uint64
}

// New creates a cache holding up to maxCost unit-cost entries. A zero ttl
// keeps entries until they are invalidated or evicted.
func New(maxCost int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

func (c *Cache) Get(key string) (any, bool) { return c.c.Get(key) }

// Generation is taken before computing a value that will be passed to SetAt.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetAt stores val only if no Invalidate happened since gen was read, and
// reports whether it did. Ristretto may still drop an accepted write under
// contention; the cache is best effort.
func (c *Cache) SetAt(key string, val any, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.c.SetWithTTL(key, val, 1, c.ttl)
	c.c.Wait()
	return true
}

// Invalidate drops key and fails every SetAt holding an older generation.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.c.Del(key)
}

func (c *Cache) Close() { c.c.Close() }
