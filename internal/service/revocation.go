package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenPrefix = "revoked_token:"

// RedisRevocationStore keeps revoked token ids in Redis with the remaining
// token lifetime as TTL.
type RedisRevocationStore struct {
	client *redis.Client
}

var _ RevocationStore = (*RedisRevocationStore)(nil)

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func (r *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return r.client.Set(ctx, revokedTokenPrefix+tokenID, "1", ttl).Err()
}

func (r *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedTokenPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
