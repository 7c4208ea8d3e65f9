package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"katalog/pkg/cache"
)

type payload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *cache.RedisCache) {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	c := cache.NewRedisCacheFromClient(client, log)
	t.Cleanup(func() { _ = c.Close() })

	return s, c
}

func TestRedisCache_RoundTrip(t *testing.T) {
	_, c := newTestCache(t)
	ctx := context.Background()

	stored := payload{Name: "Red Shoe", Price: 50}
	c.Set(ctx, "product:1", stored, 30*time.Minute)

	var got payload
	require.True(t, c.Get(ctx, "product:1", &got))
	assert.Equal(t, stored, got)
	assert.True(t, c.Exists(ctx, "product:1"))
}

func TestRedisCache_MissOnAbsentKey(t *testing.T) {
	_, c := newTestCache(t)

	var got payload
	assert.False(t, c.Get(context.Background(), "product:404", &got))
	assert.False(t, c.Exists(context.Background(), "product:404"))
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	s, c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "products:search:shoe", payload{Name: "Blue Shoe"}, 10*time.Minute)

	var got payload
	require.True(t, c.Get(ctx, "products:search:shoe", &got))

	s.FastForward(11 * time.Minute)
	assert.False(t, c.Get(ctx, "products:search:shoe", &got))
}

func TestRedisCache_Remove(t *testing.T) {
	_, c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "product:1", payload{Name: "Hat"}, time.Minute)
	c.Remove(ctx, "product:1")

	var got payload
	assert.False(t, c.Get(ctx, "product:1", &got))
}

func TestRedisCache_RemoveByPattern(t *testing.T) {
	_, c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "products:all", []payload{{Name: "Hat"}}, time.Minute)
	c.Set(ctx, "products:search:shoe", []payload{}, time.Minute)
	c.Set(ctx, "product:7", payload{Name: "Hat"}, time.Minute)

	c.RemoveByPattern(ctx, "products:*")

	assert.False(t, c.Exists(ctx, "products:all"))
	assert.False(t, c.Exists(ctx, "products:search:shoe"))
	assert.True(t, c.Exists(ctx, "product:7"), "single-item keys are outside the listing pattern")
}

func TestRedisCache_RemoveByPatternIdempotent(t *testing.T) {
	_, c := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "products:all", []payload{}, time.Minute)
	c.Set(ctx, "other:key", payload{}, time.Minute)

	c.RemoveByPattern(ctx, "products:*")
	c.RemoveByPattern(ctx, "products:*") // second call is a no-op, not an error

	assert.False(t, c.Exists(ctx, "products:all"))
	assert.True(t, c.Exists(ctx, "other:key"))
}

func TestRedisCache_UnreadableValueIsMiss(t *testing.T) {
	s, c := newTestCache(t)

	require.NoError(t, s.Set("product:1", "not-json{"))

	var got payload
	assert.False(t, c.Get(context.Background(), "product:1", &got))
}

func TestRedisCache_FailsOpenWhenBackendDown(t *testing.T) {
	s, c := newTestCache(t)
	ctx := context.Background()

	s.Close()

	// Every operation degrades to a miss or a no-op, never an error.
	var got payload
	assert.False(t, c.Get(ctx, "product:1", &got))
	assert.False(t, c.Exists(ctx, "product:1"))
	c.Set(ctx, "product:1", payload{Name: "Hat"}, time.Minute)
	c.Remove(ctx, "product:1")
	c.RemoveByPattern(ctx, "products:*")
}
