package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"automatch-workers/internal/common/config"
	apperrors "automatch-workers/internal/common/errors"
)

// PoolSettings are the connection-pool limits applied to the shared *sql.DB.
type PoolSettings struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// PostgresPool derives pool limits from configuration. Every matching worker may hold a
// connection inside an application transaction, so the pool never drops below workers
// plus one for run bookkeeping.
func PostgresPool(cfg config.PostgresConfig, workers int) PoolSettings {
	p := PoolSettings{
		MaxOpen:     max(cfg.MaxConnections, workers+1),
		MaxIdle:     cfg.MaxIdle,
		MaxLifetime: time.Duration(cfg.ConnMaxLifetime) * time.Second,
	}
	if p.MaxIdle > p.MaxOpen {
		p.MaxIdle = p.MaxOpen
	}
	if p.MaxLifetime <= 0 {
		p.MaxLifetime = 5 * time.Minute
	}
	return p
}

// OpenPostgres opens the handle every store shares. sql.Open does not dial; callers
// verify it with PingPostgres.
func OpenPostgres(cfg config.PostgresConfig, pool PoolSettings) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetConnMaxLifetime(pool.MaxLifetime)
	db.SetConnMaxIdleTime(pool.MaxLifetime)
	return db, nil
}

// PingPostgres reports an unreachable database as DATABASE_CONNECTION_FAILED.
func PingPostgres(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return apperrors.NewDatabaseConnectionFailedError(fmt.Errorf("postgres ping: %w", err))
	}
	return nil
}
