package redis

import (
	"context"
	"time"
)

// RateLimiterInterface defines the interface for challenge rate limiting.
type RateLimiterInterface interface {
	AllowChallenge(ctx context.Context, phone string) (bool, error)
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireProvisionLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseProvisionLock(ctx context.Context, driverID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ RateLimiterInterface = (*RateLimiter)(nil)
	_ LockStoreInterface   = (*LockStore)(nil)
)
