package cache

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStore(t *testing.T) {
	ctx := context.Background()

	t.Run("given missing entry, then OpenRead reports not exist", func(t *testing.T) {
		d := NewDirStore(filepath.Join(t.TempDir(), "never-created"))

		_, err := d.OpenRead(ctx, "abc")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("given written entry, then Store reads it back", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "cache")
		store := New(NewDirStore(dir))
		key := SHA1("q=foohttp://x/")

		store.Set(ctx, key, []byte("response"))

		body, ok := store.Get(ctx, key, time.Minute)
		require.True(t, ok)
		assert.Equal(t, []byte("response"), body)

		info, err := os.Stat(filepath.Join(dir, key))
		require.NoError(t, err)
		assert.Equal(t, int64(len("response")+footerSize), info.Size())
	})

	t.Run("given overwrite, then no temporary files remain", func(t *testing.T) {
		dir := t.TempDir()
		store := New(NewDirStore(dir))

		store.Set(ctx, "k1", []byte("one"))
		store.Set(ctx, "k1", []byte("two"))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "k1", entries[0].Name())

		body, ok := store.Get(ctx, "k1", time.Minute)
		require.True(t, ok)
		assert.Equal(t, []byte("two"), body)
	})

	t.Run("given path-like name, then stays inside the directory", func(t *testing.T) {
		dir := t.TempDir()
		d := NewDirStore(dir)

		assert.Equal(t, filepath.Join(dir, "passwd"), d.path("../../etc/passwd"))
	})
}
