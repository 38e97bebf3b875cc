package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automatch-workers/internal/common/config"
	apperrors "automatch-workers/internal/common/errors"
)

func TestPostgresPool(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.PostgresConfig
		workers int
		want    PoolSettings
	}{
		{
			name:    "configured limits",
			cfg:     config.PostgresConfig{MaxConnections: 25, MaxIdle: 5, ConnMaxLifetime: 60},
			workers: 4,
			want:    PoolSettings{MaxOpen: 25, MaxIdle: 5, MaxLifetime: time.Minute},
		},
		{
			name:    "grows to cover workers",
			cfg:     config.PostgresConfig{MaxConnections: 4, MaxIdle: 8},
			workers: 8,
			want:    PoolSettings{MaxOpen: 9, MaxIdle: 8, MaxLifetime: 5 * time.Minute},
		},
		{
			name:    "idle capped by open",
			cfg:     config.PostgresConfig{MaxConnections: 3, MaxIdle: 10},
			workers: 1,
			want:    PoolSettings{MaxOpen: 3, MaxIdle: 3, MaxLifetime: 5 * time.Minute},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PostgresPool(tt.cfg, tt.workers))
		})
	}
}

func TestOpenPostgres_AppliesPool(t *testing.T) {
	db, err := OpenPostgres(config.PostgresConfig{Host: "localhost", Port: 5432, SSLMode: "disable"},
		PoolSettings{MaxOpen: 7, MaxIdle: 2, MaxLifetime: time.Minute})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}

func TestPingPostgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	require.NoError(t, PingPostgres(context.Background(), db))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err = PingPostgres(context.Background(), db)
	assert.ErrorIs(t, err, apperrors.ErrDatabaseConnection)
	assert.True(t, apperrors.IsFatal(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
