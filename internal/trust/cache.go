package trust

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "trust:score:"

// RedisCache caches trust snapshots in Redis.
type RedisCache struct {
	client goredis.Cmdable
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a new trust score cache
func NewRedisCache(client goredis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

// GetScore returns the cached snapshot, or nil on a miss.
func (c *RedisCache) GetScore(ctx context.Context, userID uuid.UUID) (*TrustScore, error) {
	raw, err := c.client.Get(ctx, cacheKey(userID)).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var score TrustScore
	if err := json.Unmarshal([]byte(raw), &score); err != nil {
		return nil, err
	}

	return &score, nil
}

// SetScore caches a snapshot for the given TTL.
func (c *RedisCache) SetScore(ctx context.Context, score *TrustScore, ttl time.Duration) error {
	raw, err := json.Marshal(score)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(score.UserID), raw, ttl).Err()
}

// Invalidate drops a user's cached snapshot.
func (c *RedisCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, cacheKey(userID)).Err()
}

func cacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s%s", cacheKeyPrefix, userID)
}
