package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginLimitPrefix = "ratelimit:login:"

// LoginLimiter counts failed logins per key in a fixed window. A key is
// blocked once it reaches limit failures; the window starts at the first
// failure. A non-positive limit disables throttling.
type LoginLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
}

func NewLoginLimiter(client redis.Cmdable, limit int, window time.Duration) *LoginLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &LoginLimiter{client: client, limit: limit, window: window}
}

// Blocked reports whether key has used up its failures for the window.
func (l *LoginLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return false, nil
	}
	n, err := l.client.Get(ctx, loginLimitPrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("login limiter: %w", err)
	}
	return n >= int64(l.limit), nil
}

// RecordFailure counts one failed attempt for key.
func (l *LoginLimiter) RecordFailure(ctx context.Context, key string) error {
	if l.limit <= 0 {
		return nil
	}
	k := loginLimitPrefix + key
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("login limiter: %w", err)
	}
	return nil
}

// Reset clears the counter for key.
func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	if l.limit <= 0 {
		return nil
	}
	if err := l.client.Del(ctx, loginLimitPrefix+key).Err(); err != nil {
		return fmt.Errorf("login limiter: %w", err)
	}
	return nil
}
