package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestNewRedisLimiter_BadURL(t *testing.T) {
	if _, err := NewRedisLimiter(context.Background(), "not a url", DefaultRateLimitConfig()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewRedisLimiter_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := NewRedisLimiter(ctx, "redis://127.0.0.1:1/0", DefaultRateLimitConfig()); err == nil {
		t.Fatal("expected ping error")
	}
}

func TestRedisLimiter_WindowLimit(t *testing.T) {
	tests := []struct {
		cfg  RateLimitConfig
		want int64
	}{
		{RateLimitConfig{RequestsPerSecond: 10, BurstSize: 25}, 25},
		{RateLimitConfig{RequestsPerSecond: 2.5}, 3},
	}
	for _, tt := range tests {
		l := newRedisLimiter(unreachableRedis(), tt.cfg)
		if l.limit != tt.want {
			t.Errorf("%+v: expected window limit %d, got %d", tt.cfg, tt.want, l.limit)
		}
		_ = l.Close()
	}
}

func TestRedisLimiter_ErrorWhenUnavailable(t *testing.T) {
	l := newRedisLimiter(unreachableRedis(), DefaultRateLimitConfig())
	defer l.Close()

	allowed, _, err := l.Allow(context.Background(), "10.0.0.1")
	if err == nil {
		t.Fatal("expected error from unreachable redis")
	}
	if allowed {
		t.Error("a failed check must not report allowed")
	}
}
