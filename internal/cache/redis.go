// Package cache is a best-effort Redis read cache. A nil or disconnected
// cache behaves as a permanent miss.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TTLs for cached reads.
const (
	HistoryTTL    = 60 * time.Second
	StatisticsTTL = 5 * time.Minute
)

// Cache stores JSON-encoded read models keyed per user.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// Connect parses redisURL (with or without a redis:// scheme) and pings the server.
func Connect(ctx context.Context, redisURL string, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !strings.Contains(redisURL, "://") {
		redisURL = "redis://" + redisURL
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		// Fallback to simple connection
		opt = &redis.Options{Addr: strings.TrimPrefix(redisURL, "redis://")}
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Cache{client: client, logger: logger}, nil
}

// HistoryKey is the cache key for a user's record list.
func HistoryKey(userEmail string) string { return "history:" + userEmail }

// StatisticsKey is the cache key for a user's per-category totals.
func StatisticsKey(userEmail string) string { return "statistics:" + userEmail }

// Get decodes the cached value at key into dest. It reports false on a miss
// or on any error.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	cached, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal([]byte(cached), dest) == nil
}

// Set stores value at key for ttl.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.SetEx(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateUser drops every cached read model for userEmail.
func (c *Cache) InvalidateUser(ctx context.Context, userEmail string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, HistoryKey(userEmail), StatisticsKey(userEmail)).Err(); err != nil {
		c.logger.Debug("cache invalidation failed", zap.String("user", userEmail), zap.Error(err))
	}
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
