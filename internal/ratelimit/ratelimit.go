package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/redis"
)

// Limiter is a fixed-window counter on redis, keyed per caller. Export
// endpoints use it per organization so one tenant cannot monopolize the
// rendering pool.
type Limiter struct {
	redis  redis.RedisAdapter
	limit  int64
	window time.Duration
	prefix string
}

func New(adapter redis.RedisAdapter, limit int64, window time.Duration, prefix string) *Limiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &Limiter{
		redis:  adapter,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// Allow increments the caller's counter for the current window and reports
// whether the request is within the limit. Counter keys expire with the
// window, so idle callers cost nothing.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	windowStart := time.Now().Unix() / int64(l.window.Seconds())
	counterKey := fmt.Sprintf("%s%s:%d", l.prefix, key, windowStart)

	count, err := l.redis.Increment(counterKey, l.window)
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}
	return count <= l.limit, nil
}

func (l *Limiter) Limit() int64 {
	return l.limit
}
