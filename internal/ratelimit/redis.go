// internal/ratelimit/redis.go
//
// Redis-backed limiter shared by every instance of the service.

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "forms:rl:"

// Redis counts calls with INCR and opens the window with PEXPIRE on the
// first call.  When Redis is unreachable it fails open: submissions are
// accepted and the error is logged and returned alongside true.
type Redis struct {
	client *redis.Client
	max    int64
	period time.Duration
}

// NewRedis wraps client.  Zero arguments select defaults.
func NewRedis(client *redis.Client, limit int, period time.Duration) *Redis {
	if limit <= 0 {
		limit = DefaultMax
	}
	if period <= 0 {
		period = DefaultWindow
	}
	return &Redis{client: client, max: int64(limit), period: period}
}

// Allow implements Limiter.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := keyPrefix + key

	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		zap.S().Warnw("rate limit store unavailable, allowing", "key", key, "err", err)
		return true, fmt.Errorf("ratelimit incr: %w", err)
	}
	if n == 1 {
		if err := r.client.PExpire(ctx, k, r.period).Err(); err != nil {
			zap.S().Warnw("rate limit expiry not set", "key", key, "err", err)
		}
	}
	return n <= r.max, nil
}
