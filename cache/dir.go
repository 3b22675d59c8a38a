package cache

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// DirStore keeps one file per entry under a directory.
//
// The directory is created on first write. Names are used as file names
// verbatim, so they must be produced by a Hasher.
type DirStore struct {
	dir string
}

// NewDirStore creates a DirStore rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// Dir returns the root directory.
func (d *DirStore) Dir() string {
	return d.dir
}

// OpenRead implements FileStore.
func (d *DirStore) OpenRead(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(d.path(name))
}

// OpenWrite implements FileStore.
//
// Content goes to a temporary file that is renamed over the entry on Close,
// so readers never observe a partial blob.
func (d *DirStore) OpenWrite(_ context.Context, name string) (io.WriteCloser, error) {
	if err := os.MkdirAll(d.dir, 0o700); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(d.dir, filepath.Base(name)+".*.tmp")
	if err != nil {
		return nil, err
	}

	return &renameOnClose{File: f, target: d.path(name)}, nil
}

func (d *DirStore) path(name string) string {
	return filepath.Join(d.dir, filepath.Base(name))
}

type renameOnClose struct {
	*os.File
	target string
}

func (r *renameOnClose) Close() error {
	tmp := r.Name()
	if err := r.File.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, r.target); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return nil
}
