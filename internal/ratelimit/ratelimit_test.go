package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func TestLimiter_Allow(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	t.Run("allows up to the limit then denies", func(t *testing.T) {
		limiter := New(adapter, 3, time.Hour, "test:rl:")

		for i := 0; i < 3; i++ {
			allowed, err := limiter.Allow(ctx, "org:10")
			require.NoError(t, err)
			assert.True(t, allowed, "request %d should be allowed", i+1)
		}

		allowed, err := limiter.Allow(ctx, "org:10")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("keys are independent per caller", func(t *testing.T) {
		limiter := New(adapter, 1, time.Hour, "test:rl2:")

		allowed, err := limiter.Allow(ctx, "org:1")
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = limiter.Allow(ctx, "org:2")
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = limiter.Allow(ctx, "org:1")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("counter resets in the next window", func(t *testing.T) {
		limiter := New(adapter, 1, time.Second, "test:rl3:")

		allowed, err := limiter.Allow(ctx, "org:5")
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = limiter.Allow(ctx, "org:5")
		require.NoError(t, err)
		assert.False(t, allowed)

		// The next window uses a fresh counter key.
		time.Sleep(1100 * time.Millisecond)

		allowed, err = limiter.Allow(ctx, "org:5")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("constructor applies defaults", func(t *testing.T) {
		limiter := New(adapter, 0, 0, "")
		assert.Equal(t, int64(10), limiter.Limit())
	})
}
