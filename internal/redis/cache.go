package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles resolved-identity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// IdentityCacheTTL is short because status changes (block/unblock) must take
// effect on the next session refresh.
const IdentityCacheTTL = 30 * time.Second

const identityCachePrefix = "cache:identity:"

// CachedIdentity represents a cached identity entry.
type CachedIdentity struct {
	ID         string `json:"id"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	IsVerified bool   `json:"is_verified"`
}

// GetIdentity retrieves an identity from cache.
func (s *CacheStore) GetIdentity(ctx context.Context, subjectID string) (*CachedIdentity, error) {
	key := identityCachePrefix + subjectID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var identity CachedIdentity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// SetIdentity stores an identity in cache.
func (s *CacheStore) SetIdentity(ctx context.Context, identity *CachedIdentity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, identityCachePrefix+identity.ID, data, IdentityCacheTTL).Err()
}

// InvalidateIdentity removes an identity from cache.
func (s *CacheStore) InvalidateIdentity(ctx context.Context, subjectID string) error {
	return s.client.Del(ctx, identityCachePrefix+subjectID).Err()
}
