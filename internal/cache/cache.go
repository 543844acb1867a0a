// Package cache is a small Redis-backed JSON cache for read-heavy views such
// as dashboard statistics. A nil Redis client turns every call into a miss.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const keyPrefix = "cicilan:cache:"

var Module = fx.Module("cache",
	fx.Provide(New),
)

type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the cached value into dst and reports whether it was present.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.client.Get(ctx, Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.Enabled() || ttl <= 0 {
		return nil
	}
	raw, err := sonic.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(key), raw, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, Key(k))
	}
	return c.client.Del(ctx, full...).Err()
}

func Key(name string) string {
	return keyPrefix + strings.TrimSpace(name)
}

// StatsKey scopes dashboard statistics; an empty reseller id is the admin view.
func StatsKey(resellerID string) string {
	resellerID = strings.TrimSpace(resellerID)
	if resellerID == "" {
		return "stats:all"
	}
	return "stats:reseller:" + resellerID
}
