package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCache(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name     string
		settings func(dir string) Settings
		wantErr  string
	}{
		{
			name:     "given no backend, then uses memory",
			settings: func(string) Settings { return Settings{} },
		},
		{
			name:     "given dir backend, then stores files in the directory",
			settings: func(dir string) Settings { return Settings{CacheType: "dir", CacheDir: dir} },
		},
		{
			name:     "given dir backend without directory, then fails",
			settings: func(string) Settings { return Settings{CacheType: "dir"} },
			wantErr:  "requires --cache-dir",
		},
		{
			name: "given redis backend, then stores entries in redis",
			settings: func(string) Settings {
				return Settings{CacheType: "redis", RedisAddr: mr.Addr(), RedisPrefix: "test:"}
			},
		},
		{
			name: "given sqlite backend, then creates the table",
			settings: func(dir string) Settings {
				return Settings{CacheType: "SQLite", SQLitePath: filepath.Join(dir, "c.db"), SQLiteTable: "entries"}
			},
		},
		{
			name:     "given unknown backend, then fails",
			settings: func(string) Settings { return Settings{CacheType: "memcached"} },
			wantErr:  `unknown cache backend "memcached"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			store, closer, err := openCache(ctx, tt.settings(t.TempDir()), zerolog.Nop())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer closer.Close()

			store.Set(ctx, "k", []byte("body"))

			got, ok := store.Get(ctx, "k", time.Minute)
			require.True(t, ok)
			assert.Equal(t, []byte("body"), got)
		})
	}
}

func TestOpenCache_RedisPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	store, closer, err := openCache(ctx, Settings{CacheType: "redis", RedisAddr: mr.Addr(), RedisPrefix: "inv:"}, zerolog.Nop())
	require.NoError(t, err)
	defer closer.Close()

	store.Set(ctx, "abc", []byte("x"))

	assert.True(t, mr.Exists("inv:abc"))
}
