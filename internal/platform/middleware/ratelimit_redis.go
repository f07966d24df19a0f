package middleware

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ehr:ratelimit:"

// RedisLimiter counts requests per key in fixed one-second windows shared by
// every server instance. The window admits BurstSize requests, or
// RequestsPerSecond when no burst is configured.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter connects to url and pings it.
func NewRedisLimiter(ctx context.Context, url string, cfg RateLimitConfig) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return newRedisLimiter(client, cfg), nil
}

func newRedisLimiter(client *redis.Client, cfg RateLimitConfig) *RedisLimiter {
	limit := int64(cfg.BurstSize)
	if limit <= 0 {
		limit = int64(math.Ceil(cfg.RequestsPerSecond))
	}
	return &RedisLimiter{client: client, limit: limit, window: time.Second, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	slot := l.now().UnixNano() / int64(l.window)
	k := fmt.Sprintf("%s%s:%d", redisKeyPrefix, key, slot)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("redis rate limit: %w", err)
	}

	if incr.Val() > l.limit {
		return false, int(math.Ceil(l.window.Seconds())), nil
	}
	return true, 0, nil
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
