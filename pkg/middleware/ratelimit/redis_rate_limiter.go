package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nimburion/bookshelf/pkg/observability/logger"
)

type redisClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// noExpiry is what TTL reports for a key that exists without an expiry.
const noExpiry = time.Duration(-1)

// RedisConfig configures the distributed limiter.
type RedisConfig struct {
	RequestsPerSecond int
	Burst             int
	// Window is the fixed counting window. Defaults to one second.
	Window           time.Duration
	Prefix           string
	OperationTimeout time.Duration
}

// RedisRateLimiter is a fixed-window counter shared by every replica through Redis.
// It fails open: a Redis error lets the request through.
type RedisRateLimiter struct {
	client    redisClient
	limit     int64
	window    time.Duration
	opTimeout time.Duration
	prefix    string
	log       logger.Logger
}

// NewRedisRateLimiter builds a limiter on an existing client. The client is
// owned by the caller and is not closed by the limiter.
func NewRedisRateLimiter(client redisClient, cfg RedisConfig, log logger.Logger) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required for distributed rate limiting")
	}
	if cfg.RequestsPerSecond <= 0 {
		return nil, errors.New("requests_per_second must be greater than zero")
	}
	if cfg.Burst < 0 {
		return nil, errors.New("burst cannot be negative")
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 500 * time.Millisecond
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &RedisRateLimiter{
		client:    client,
		limit:     int64(cfg.RequestsPerSecond + cfg.Burst),
		window:    cfg.Window,
		opTimeout: cfg.OperationTimeout,
		prefix:    cfg.Prefix,
		log:       log,
	}, nil
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	redisKey := r.redisKey(key)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		r.log.Error("redis rate limiter increment failed", "error", err)
		return true
	}

	if count == 1 {
		r.expire(ctx, redisKey)
	}
	if count <= r.limit {
		return true
	}

	// A counter left without a TTL by a failed EXPIRE would never reset.
	ttl, err := r.client.TTL(ctx, redisKey).Result()
	if err == nil && ttl == noExpiry {
		r.log.Warn("redis rate limiter restoring missing TTL", "key", redisKey)
		r.expire(ctx, redisKey)
	}
	return false
}

func (r *RedisRateLimiter) expire(ctx context.Context, redisKey string) {
	if err := r.client.Expire(ctx, redisKey, r.window).Err(); err != nil {
		r.log.Warn("redis rate limiter failed to set TTL", "error", err)
	}
}

func (r *RedisRateLimiter) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}
