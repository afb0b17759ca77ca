package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/viewhost/pkg/domain"
)

// DefaultPrefix namespaces package keys.
const DefaultPrefix = "viewhost:package:"

// Cache implements ports.PackageCache using Redis. Keys are tracked in an index
// set so Flush only touches packages written by this cache.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the expiration for cached packages.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix for cached packages.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a Redis cache with its own client.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	cache := &Cache{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

func (c *Cache) key(name string) string {
	return c.prefix + name
}

func (c *Cache) indexKey() string {
	return c.prefix + "index"
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package from redis: %w", err)
	}
	return data, nil
}

func (c *Cache) Put(ctx context.Context, key string, data []byte) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(key), data, c.ttl)
	pipe.SAdd(ctx, c.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save package to redis: %w", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.key(key))
	pipe.SRem(ctx, c.indexKey(), key)
	_, err := pipe.Exec(ctx)
	return err
}

// Flush removes every package recorded in the index.
func (c *Cache) Flush(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, c.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list cached packages: %w", err)
	}
	pipe := c.client.TxPipeline()
	for _, key := range keys {
		pipe.Del(ctx, c.key(key))
	}
	pipe.Del(ctx, c.indexKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to flush packages: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
