package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stormix/stormbot/internal/config"
)

// Redis is a cache backed by a Redis instance. Keys survive process
// restarts, which keeps cooldowns armed across a bot redeploy.
type Redis struct {
	prefix  string
	primary bool
	cfg     config.RedisConfig
	client  *redis.Client
}

// NewRedis creates a Redis cache from config. The connection is established
// in Setup, not here.
func NewRedis(prefix string, primary bool, cfg config.RedisConfig) *Redis {
	return &Redis{prefix: prefix, primary: primary, cfg: cfg}
}

func (r *Redis) Name() string  { return "redis" }
func (r *Redis) Primary() bool { return r.primary }

// Setup connects and pings the backing instance so a bad address fails at
// startup instead of at first cooldown check.
func (r *Redis) Setup(ctx context.Context) error {
	r.client = redis.NewClient(&redis.Options{
		Addr:     r.cfg.Addr,
		Password: r.cfg.Password,
		DB:       r.cfg.DB,
	})
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis at %s: %w", r.cfg.Addr, err)
	}
	return nil
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *Redis) Set(ctx context.Context, key, value string, expiry time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, expiry).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Stop() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
