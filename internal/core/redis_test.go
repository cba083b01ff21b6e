// AngelaMos | 2026
// redis_test.go

package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/tenant-platform/internal/config"
)

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(config.RedisConfig{
		URL:          "redis://:secret@cache.internal:6380/2",
		PoolSize:     20,
		MinIdleConns: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 4, opts.MinIdleConns)

	keep, err := redisOptions(config.RedisConfig{URL: "redis://localhost:6379/0?pool_size=7"})
	require.NoError(t, err)
	assert.Equal(t, 7, keep.PoolSize)

	_, err = redisOptions(config.RedisConfig{URL: "http://nope"})
	assert.Error(t, err)
}

func TestPingWithinBoundsCheck(t *testing.T) {
	var deadline time.Time
	err := pingWithin(context.Background(), "cache", func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return errors.New("refused")
	})

	require.Error(t, err)
	assert.Equal(t, "ping cache: refused", err.Error())
	assert.WithinDuration(t, time.Now().Add(pingTimeout), deadline, time.Second)

	assert.NoError(t, pingWithin(context.Background(), "cache", func(context.Context) error { return nil }))
}
