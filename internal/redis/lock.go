package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireProvisionLock attempts to acquire the provisioning lock for the
// given driver. Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireProvisionLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:provision:%s", driverID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseProvisionLock releases the provisioning lock for the given driver.
func (s *LockStore) ReleaseProvisionLock(ctx context.Context, driverID string) error {
	key := fmt.Sprintf("lock:provision:%s", driverID)

	return s.client.Del(ctx, key).Err()
}
