package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automatch-workers/internal/common/config"
	apperrors "automatch-workers/internal/common/errors"
)

func TestOpenRedis_NoAddress(t *testing.T) {
	assert.Nil(t, OpenRedis(config.RedisConfig{}))
}

func TestOpenRedis_PoolDefaults(t *testing.T) {
	rdb := OpenRedis(config.RedisConfig{Address: "localhost:6379", MinIdleConns: 50})
	require.NotNil(t, rdb)
	defer rdb.Close()

	assert.Equal(t, 10, rdb.Options().PoolSize)
	assert.Equal(t, 10, rdb.Options().MinIdleConns)
}

func TestPingRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := OpenRedis(config.RedisConfig{Address: mr.Addr(), PoolSize: 2})
	defer rdb.Close()

	require.NoError(t, PingRedis(context.Background(), rdb))

	mr.Close()
	err = PingRedis(context.Background(), rdb)
	assert.ErrorIs(t, err, apperrors.ErrDatabaseConnection)
}
