package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/dicetree/pkg/domain"
)

// Cache implements ports.DistributionCache in memory.
// Safe for concurrent use. Distributions are immutable, so entries are shared, not copied.
type Cache struct {
	data map[string]domain.Distribution
	mu   sync.RWMutex
}

// NewCache creates an empty in-memory cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]domain.Distribution),
	}
}

// Get returns the distribution stored under key.
func (c *Cache) Get(ctx context.Context, key string) (domain.Distribution, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Distribution{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	dist, ok := c.data[key]
	return dist, ok, nil
}

// Put stores dist under key.
func (c *Cache) Put(ctx context.Context, key string, dist domain.Distribution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = dist
	return nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// List returns the cached keys in sorted order.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
