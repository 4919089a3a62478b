package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leofalp/antitok/providers/cache"
	"github.com/leofalp/antitok/providers/observability"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "antitok:"

// Cache stores values in Redis under a key prefix.
type Cache struct {
	client *redis.Client
	prefix string
}

var _ cache.Provider = (*Cache)(nil)

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// New wraps an existing client. The caller keeps ownership of the client.
func New(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to addr and pings it so a bad address fails at startup
// rather than on the first request.
func Dial(ctx context.Context, addr, password string, db int, opts ...Option) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("rediscache: connecting to %s: %w", addr, err)
	}
	return New(client, opts...), nil
}

func (c *Cache) key(key string) string {
	return c.prefix + key
}

// Get returns cache.ErrMiss when the key is absent or expired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	hit := err == nil

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventCacheLookup,
			observability.String(observability.AttrCacheBackend, "redis"),
			observability.String(observability.AttrCacheKey, key),
			observability.Bool(observability.AttrCacheHit, hit),
		)
	}

	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("rediscache: get %q: %w", key, err)
	}
	return data, nil
}

// Set stores value. A non-positive ttl stores it without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: set %q: %w", key, err)
	}
	return nil
}

// Delete removes the prefixed key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("rediscache: delete %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping reports whether the server is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("rediscache: ping: %w", err)
	}
	return nil
}
