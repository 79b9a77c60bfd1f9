package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisLimiter implements the same append-and-prune sliding window on a
// Redis sorted set, so the limit holds across replicas. Scores and members
// are request timestamps in unix nanoseconds.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
}

func NewRedisLimiter(client *redis.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		cfg:    cfg,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	cutoff := now.Add(-l.cfg.Window).UnixNano()
	rkey := redisKeyPrefix + key

	if err := l.client.ZRemRangeByScore(ctx, rkey, "0", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return Decision{}, fmt.Errorf("pruning rate-limit window: %w", err)
	}

	count, err := l.client.ZCard(ctx, rkey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("counting rate-limit window: %w", err)
	}

	if count >= int64(l.cfg.MaxRequests) {
		reset := now.Add(l.cfg.Window)
		if oldest, err := l.client.ZRangeWithScores(ctx, rkey, 0, 0).Result(); err == nil && len(oldest) > 0 {
			reset = time.Unix(0, int64(oldest[0].Score)).Add(l.cfg.Window)
		}
		return Decision{Allowed: false, ResetAt: reset}, nil
	}

	pipe := l.client.TxPipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.PExpire(ctx, rkey, l.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("recording rate-limit entry: %w", err)
	}

	return Decision{Allowed: true}, nil
}
