package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces a fixed-window per-user command budget backed by
// Redis.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing limit commands per window. A
// non-positive limit disables limiting.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow reports whether the user may issue another command in the current
// window. It fails open on Redis errors.
func (r *RateLimiter) Allow(ctx context.Context, userID int64) bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	key := fmt.Sprintf("ratelimit:%d:%d", userID, time.Now().Unix()/int64(r.window.Seconds()))
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		r.client.Expire(ctx, key, r.window)
	}
	return count <= int64(r.limit)
}
