package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/dicetree/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every cache key.
const DefaultPrefix = "dicetree:dist:"

// Cache implements ports.DistributionCache using Redis.
// Entries are JSON-encoded distributions; a sorted-set index tracks live keys.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the expiration of cached distributions.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a Redis cache connected to address.
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

// Client returns the underlying client, so a Locker can share the connection pool.
func (c *Cache) Client() *backend.Client {
	return c.client
}

func (c *Cache) key(key string) string {
	return c.prefix + key
}

func (c *Cache) indexKey() string {
	return c.prefix + "index"
}

// Get retrieves a distribution.
func (c *Cache) Get(ctx context.Context, key string) (domain.Distribution, bool, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Distribution{}, false, nil
		}
		return domain.Distribution{}, false, fmt.Errorf("failed to get from redis: %w", err)
	}

	var dist domain.Distribution
	if err := json.Unmarshal(val, &dist); err != nil {
		return domain.Distribution{}, false, fmt.Errorf("failed to unmarshal distribution: %w", err)
	}
	return dist, true, nil
}

// Put stores a distribution and indexes its key.
func (c *Cache) Put(ctx context.Context, key string, dist domain.Distribution) error {
	data, err := json.Marshal(dist)
	if err != nil {
		return fmt.Errorf("failed to marshal distribution: %w", err)
	}

	// score is the expiry time; entries without a TTL sort far in the future
	score := float64(time.Now().Add(c.ttl).Unix())
	if c.ttl == 0 {
		score = 4102444800
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.key(key), data, c.ttl)
	pipe.ZAdd(ctx, c.indexKey(), backend.Z{Score: score, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Delete removes a distribution.
func (c *Cache) Delete(ctx context.Context, key string) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, c.key(key))
	pipe.ZRem(ctx, c.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List prunes expired keys from the index and returns the rest.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := c.client.ZRemRangeByScore(ctx, c.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired distributions: %w", err)
	}

	keys, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list distributions: %w", err)
	}
	return keys, nil
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
