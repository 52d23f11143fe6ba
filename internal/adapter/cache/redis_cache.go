package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tiendamx/shop-api/internal/usecase"
)

// RedisCache keeps a hot copy of order fulfillment status for cheap storefront
// polling.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (r *RedisCache) SetStatus(ctx context.Context, orderID string, status string) error {
	return r.rdb.Set(ctx, "order:status:"+orderID, status, r.ttl).Err()
}

// GetStatus returns "" without error on a cache miss.
func (r *RedisCache) GetStatus(ctx context.Context, orderID string) (string, error) {
	val, err := r.rdb.Get(ctx, "order:status:"+orderID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

var _ usecase.OrderCache = (*RedisCache)(nil)
