package db

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/yigit/unisphere-scheduler/internal/config"
	"github.com/yigit/unisphere-scheduler/internal/pkg/logger"
)

// RedisDB wraps the client shared by the run locks
type RedisDB struct {
	Client *goredis.Client
}

// NewRedisDB connects to redis and pings it. It returns nil when no address is configured.
func NewRedisDB(cfg *config.Config) (*RedisDB, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to redis")
	return &RedisDB{Client: rdb}, nil
}

// Ping checks the connection
func (r *RedisDB) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Close closes the client
func (r *RedisDB) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
