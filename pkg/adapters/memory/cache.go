package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/viewhost/pkg/domain"
)

// Cache implements ports.PackageCache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewCache creates an empty in-memory package cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get returns a copy of the cached payload so callers can't mutate the cache.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, ok := c.data[key]
	if !ok {
		return nil, domain.ErrPackageNotFound
	}
	return slices.Clone(data), nil
}

func (c *Cache) Put(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = slices.Clone(data)
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
	return nil
}

// Len returns the number of cached packages.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
