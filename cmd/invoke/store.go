package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/kroma-labs/invoker/cache"
)

// Cache backends selectable with --cache.
const (
	cacheMemory = "memory"
	cacheDir    = "dir"
	cacheRedis  = "redis"
	cacheSQLite = "sqlite"
)

// openCache builds the response cache named by s.CacheType. The returned
// closer releases the backend connection.
func openCache(ctx context.Context, s Settings, logger zerolog.Logger) (*cache.Store, io.Closer, error) {
	var (
		backend cache.FileStore
		closer  io.Closer = nopCloser{}
	)

	switch strings.ToLower(strings.TrimSpace(s.CacheType)) {
	case "", cacheMemory:
		backend = cache.NewMemStore()

	case cacheDir:
		if s.CacheDir == "" {
			return nil, nil, fmt.Errorf("cache %q requires --cache-dir", cacheDir)
		}
		backend = cache.NewDirStore(s.CacheDir)

	case cacheRedis:
		rdb := redis.NewClient(&redis.Options{Addr: s.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", s.RedisAddr, err)
		}
		var opts []cache.RedisOption
		if s.RedisPrefix != "" {
			opts = append(opts, cache.WithRedisPrefix(s.RedisPrefix))
		}
		backend = cache.NewRedisStore(rdb, opts...)
		closer = rdb

	case cacheSQLite:
		db, err := sqlx.Open("sqlite", s.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", s.SQLitePath, err)
		}
		var opts []cache.SQLOption
		if s.SQLiteTable != "" {
			opts = append(opts, cache.WithTable(s.SQLiteTable))
		}
		store := cache.NewSQLStore(db, opts...)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		backend = store
		closer = db

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", s.CacheType)
	}

	logger.Debug().Str("backend", s.CacheType).Msg("response cache ready")

	return cache.New(backend, cache.WithLogger(logger)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
