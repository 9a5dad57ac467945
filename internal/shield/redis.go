package shield

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Requests int
	Window   time.Duration
}

// RedisProtector counts requests per key in fixed windows, shared across
// instances. On redis failure it fails open: availability over strictness.
type RedisProtector struct {
	rdb      *redis.Client
	requests int
	window   time.Duration
}

func NewRedisProtector(cfg RedisConfig) *RedisProtector {
	if cfg.Requests <= 0 {
		cfg.Requests = 100
	}

	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &RedisProtector{
		rdb:      rdb,
		requests: cfg.Requests,
		window:   cfg.Window,
	}
}

func (p *RedisProtector) Check(ctx context.Context, key, userAgent string) Decision {
	if looksAutomated(userAgent) {
		return Deny(ReasonBot)
	}

	windowKey := "shield:" + key + ":" + time.Now().UTC().Truncate(p.window).Format(time.RFC3339)

	pipe := p.rdb.Pipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, p.window)

	_, err := pipe.Exec(ctx)

	if err != nil {
		return Allow()
	}

	if incr.Val() > int64(p.requests) {
		return Deny(ReasonRateLimited)
	}

	return Allow()
}

func (p *RedisProtector) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

func (p *RedisProtector) Close() error {
	return p.rdb.Close()
}
