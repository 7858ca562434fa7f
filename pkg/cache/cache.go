// Package cache implements cache-aside reads over the shared Redis client.
// Cache failures never fail a request: they are logged and the loader runs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
)

// Store is the subset of pkg/redis.Client used for caching.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
	CacheKey(parts ...string) string
}

var ErrMiss = errors.New("cache miss")

type Cache struct {
	store Store
	logg  *logger.Logger
}

func New(store Store, logg *logger.Logger) *Cache {
	return &Cache{store: store, logg: logg}
}

// Key builds a namespaced cache key.
func (c *Cache) Key(parts ...string) string {
	if c == nil || c.store == nil {
		return ""
	}
	return c.store.CacheKey(parts...)
}

// GetJSON decodes the cached value at key into dest. Returns ErrMiss when absent.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) error {
	if c == nil || c.store == nil {
		return ErrMiss
	}
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, goredis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", key, err)
	}
	return nil
}

// SetJSON stores value at key with ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.store == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.store.Set(ctx, key, string(payload), ttl)
}

// Invalidate drops every key under the namespaced prefix parts, e.g. ("crm", "customers").
func (c *Cache) Invalidate(ctx context.Context, parts ...string) {
	if c == nil || c.store == nil {
		return
	}
	pattern := c.store.CacheKey(parts...) + ":*"
	if _, err := c.store.DeleteByPattern(ctx, pattern); err != nil {
		c.warn(ctx, "cache.invalidate_failed", pattern, err)
	}
}

func (c *Cache) warn(ctx context.Context, msg, key string, err error) {
	if c == nil || c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()})
	c.logg.Warn(ctx, msg)
}

// Remember returns the cached value for key or runs load and caches its result.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	err := c.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrMiss) {
		c.warn(ctx, "cache.read_failed", key, err)
	}

	fresh, err := load(ctx)
	if err != nil {
		return fresh, err
	}
	if err := c.SetJSON(ctx, key, fresh, ttl); err != nil {
		c.warn(ctx, "cache.write_failed", key, err)
	}
	return fresh, nil
}
