package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a coarse per-chat flood limiter for inbound bot updates.
// It is separate from the verification attempt limit, which is computed over
// the persisted attempt log.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}

func ChatKey(chatID int64) string {
	return fmt.Sprintf("flood:%d", chatID)
}
