package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// scanCount is the COUNT hint for SCAN during pattern invalidation.
const scanCount = 100

// RedisCache implements Cache on top of a redis client. Values are stored as
// JSON. All redis and serialization failures are logged at warn level and
// degrade to a miss or a no-op, so a cache outage never blocks the system of
// record.
type RedisCache struct {
	client *redis.Client
	log    *logrus.Logger
}

// Config holds redis connection details.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache creates a cache backed by the given redis server. The
// connection is probed with a ping, but a failed ping is only logged: every
// operation fails open, so the process can serve from the repository alone.
func NewRedisCache(ctx context.Context, cfg Config, log *logrus.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, continuing without cache")
	}
	return &RedisCache{client: client, log: log}
}

// NewRedisCacheFromClient wraps an existing client. Used by tests.
func NewRedisCacheFromClient(client *redis.Client, log *logrus.Logger) *RedisCache {
	return &RedisCache{client: client, log: log}
}

// Get unmarshals the cached JSON for key into dest.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache get failed")
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache value unreadable")
		return false
	}
	return true
}

// Set serializes value to JSON and stores it under key with the TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache value not serializable")
		return
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

// Remove deletes a single key.
func (c *RedisCache) Remove(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache remove failed")
	}
}

// RemoveByPattern enumerates keys matching the glob pattern with SCAN and
// deletes each. Deleting nothing is not an error, so repeated calls with the
// same pattern are harmless.
func (c *RedisCache) RemoveByPattern(ctx context.Context, pattern string) {
	iter := c.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.WithError(err).WithField("key", iter.Val()).Warn("cache remove failed")
		}
	}
	if err := iter.Err(); err != nil {
		c.log.WithError(err).WithField("pattern", pattern).Warn("cache scan failed")
	}
}

// Exists reports whether the key is present.
func (c *RedisCache) Exists(ctx context.Context, key string) bool {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache exists check failed")
		return false
	}
	return n > 0
}

// Close releases the underlying redis connection.
func (c *RedisCache) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis connection: %w", err)
	}
	return nil
}
