package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Tomlord1122/todolist/internal/config"
	"github.com/Tomlord1122/todolist/internal/domain"
)

const keyList = "todo:list:"

// ListCache caches the rendered items of a list by normalized name.
type ListCache interface {
	// Get returns the cached items and whether there was a hit.
	Get(ctx context.Context, name string) ([]domain.Item, bool, error)
	Set(ctx context.Context, name string, items []domain.Item) error
	Invalidate(ctx context.Context, name string) error
	Ping(ctx context.Context) error
}

// RedisListCache keeps list contents in Redis with a fixed TTL.
type RedisListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisListCache(rdb *redis.Client, ttl time.Duration) *RedisListCache {
	return &RedisListCache{rdb: rdb, ttl: ttl}
}

func (c *RedisListCache) Get(ctx context.Context, name string) ([]domain.Item, bool, error) {
	b, err := c.rdb.Get(ctx, keyList+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var items []domain.Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, false, err
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, true, nil
}

func (c *RedisListCache) Set(ctx context.Context, name string, items []domain.Item) error {
	if items == nil {
		items = []domain.Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyList+name, b, c.ttl).Err()
}

func (c *RedisListCache) Invalidate(ctx context.Context, name string) error {
	return c.rdb.Del(ctx, keyList+name).Err()
}

func (c *RedisListCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Noop is used when no Redis endpoint is configured. Every Get misses.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]domain.Item, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []domain.Item) error         { return nil }
func (Noop) Invalidate(context.Context, string) error                 { return nil }
func (Noop) Ping(context.Context) error                               { return nil }

// Open connects to the configured Redis and pings it. It returns a nil client
// when cfg has no endpoint.
func Open(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	var opts *redis.Options
	if cfg.URL != "" {
		var err error
		opts, err = redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("REDIS_URL: %w", err)
		}
	} else {
		opts = &redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
