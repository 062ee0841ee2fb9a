package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts challenge issuances per phone number over a fixed
// window. It only throttles our own challenge traffic; the verification
// provider enforces its own quota on top.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a new RateLimiter.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// AllowChallenge reports whether another challenge may be issued for the
// given phone number, incrementing the window counter as a side effect.
func (l *RateLimiter) AllowChallenge(ctx context.Context, phone string) (bool, error) {
	key := fmt.Sprintf("rate:challenge:%s", phone)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		// First hit in the window sets the expiry.
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}

	return count <= int64(l.limit), nil
}
