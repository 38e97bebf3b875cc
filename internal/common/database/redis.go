package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"automatch-workers/internal/common/config"
	apperrors "automatch-workers/internal/common/errors"
)

// OpenRedis returns nil when no address is configured; the caches are optional.
func OpenRedis(cfg config.RedisConfig) *redis.Client {
	if cfg.Address == "" {
		return nil
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     poolSize,
		MinIdleConns: min(cfg.MinIdleConns, poolSize),
	})
}

// PingRedis reports an unreachable cache as DATABASE_CONNECTION_FAILED.
func PingRedis(ctx context.Context, rdb *redis.Client) error {
	if err := rdb.Ping(ctx).Err(); err != nil {
		return apperrors.NewDatabaseConnectionFailedError(fmt.Errorf("redis ping: %w", err))
	}
	return nil
}
