package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisThrottle struct {
	client *redis.Client
	cfg    Config
}

func NewRedis(client *redis.Client, cfg Config) *RedisThrottle {
	return &RedisThrottle{client: client, cfg: cfg}
}

// NewRedisClient parses a redis:// or rediss:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	return redis.NewClient(opts), nil
}

func (r *RedisThrottle) Cooldown(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, cooldownPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set cooldown: %w", err)
	}
	return ok, nil
}

func (r *RedisThrottle) Locked(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Get(ctx, failurePrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get failures: %w", err)
	}
	return n >= int64(r.cfg.MaxFailures), nil
}

func (r *RedisThrottle) Fail(ctx context.Context, key string) (int64, error) {
	k := failurePrefix + key
	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("incr failures: %w", err)
	}
	// The window starts at the first failure.
	if n == 1 {
		if err := r.client.Expire(ctx, k, r.cfg.FailureWindow).Err(); err != nil {
			return n, fmt.Errorf("expire failures: %w", err)
		}
	}
	return n, nil
}

func (r *RedisThrottle) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, failurePrefix+key).Err(); err != nil {
		return fmt.Errorf("reset failures: %w", err)
	}
	return nil
}
