package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tiendamx/shop-api/internal/usecase"
)

// RedisProcessedPayments remembers which external payment ids were already
// handled. SETNX gives the first delivery the claim; replays see false. Keys
// expire after the TTL — the conditional update in the order repo remains the
// authoritative guard long after.
type RedisProcessedPayments struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisProcessedPayments(rdb *redis.Client, ttl time.Duration) *RedisProcessedPayments {
	return &RedisProcessedPayments{rdb: rdb, ttl: ttl}
}

func (s *RedisProcessedPayments) MarkProcessed(ctx context.Context, provider, paymentID string) (bool, error) {
	return s.rdb.SetNX(ctx, "payment:seen:"+provider+":"+paymentID, "1", s.ttl).Result()
}

var _ usecase.ProcessedPayments = (*RedisProcessedPayments)(nil)
