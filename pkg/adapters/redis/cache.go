package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/resource"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the cache.
const DefaultPrefix = "formwork:cache:"

// farFuture is the index score of listings without expiry (2100-01-01).
const farFuture = 4102444800

// Cache implements ports.ResourceCache using Redis.
// Listings are stored as JSON strings; a sorted set indexes the cached
// scopes by expiry so prefix invalidation never needs KEYS or SCAN.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the default expiration used when Set is called with a zero ttl.
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

// New creates a new Redis cache with options.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) key(scope string) string {
	return c.prefix + "scope:" + scope
}

func (c *Cache) indexKey() string {
	return c.prefix + "index"
}

// Get retrieves a listing from Redis.
func (c *Cache) Get(ctx context.Context, scope string) ([]resource.Summary, error) {
	val, err := c.client.Get(ctx, c.key(scope)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ports.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var items []resource.Summary
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listing: %w", err)
	}
	if items == nil {
		items = []resource.Summary{}
	}
	return items, nil
}

// Set stores a listing in Redis.
func (c *Cache) Set(ctx context.Context, scope string, items []resource.Summary, ttl time.Duration) error {
	if items == nil {
		items = []resource.Summary{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}

	if ttl == 0 {
		ttl = c.ttl
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.key(scope), data, ttl)

	score := float64(time.Now().Add(ttl).Unix())
	if ttl == 0 {
		score = farFuture
	}
	pipe.ZAdd(ctx, c.indexKey(), backend.Z{
		Score:  score,
		Member: scope,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Invalidate removes every cached scope starting with prefix.
func (c *Cache) Invalidate(ctx context.Context, prefix string) error {
	// Lazy Cleanup: drop expired scopes from the index first.
	now := float64(time.Now().Unix())
	if err := c.client.ZRemRangeByScore(ctx, c.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return fmt.Errorf("failed to prune expired scopes: %w", err)
	}

	scopes, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list scopes: %w", err)
	}

	pipe := c.client.Pipeline()
	matched := 0
	for _, scope := range scopes {
		if !strings.HasPrefix(scope, prefix) {
			continue
		}
		pipe.Del(ctx, c.key(scope))
		pipe.ZRem(ctx, c.indexKey(), scope)
		matched++
	}
	if matched == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate scopes: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
