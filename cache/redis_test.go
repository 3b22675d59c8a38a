package cache

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("given missing key, then OpenRead reports not exist", func(t *testing.T) {
		_, rdb := newTestRedis(t)
		s := NewRedisStore(rdb)

		_, err := s.OpenRead(ctx, "absent")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("given written entry, then stored under prefix and read back", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		store := New(NewRedisStore(rdb, WithRedisPrefix("test:")))

		store.Set(ctx, "k", []byte("payload"))

		assert.True(t, mr.Exists("test:k"))
		body, ok := store.Get(ctx, "k", time.Minute)
		require.True(t, ok)
		assert.Equal(t, []byte("payload"), body)
	})

	t.Run("given expiry, then key carries redis ttl", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		store := New(NewRedisStore(rdb, WithRedisExpiry(time.Hour)))

		store.Set(ctx, "k", []byte("payload"))

		assert.Equal(t, time.Hour, mr.TTL(DefaultRedisPrefix+"k"))
	})

	t.Run("given server error, then Get reports miss", func(t *testing.T) {
		mr, rdb := newTestRedis(t)
		store := New(NewRedisStore(rdb))
		store.Set(ctx, "k", []byte("payload"))

		mr.SetError("ERR simulated failure")
		defer mr.SetError("")

		body, ok := store.Get(ctx, "k", time.Minute)
		assert.False(t, ok)
		assert.Nil(t, body)
	})
}
