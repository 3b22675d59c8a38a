package cache

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"sync"
)

// MemStore is a process-local FileStore.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string][]byte)}
}

// OpenRead implements FileStore.
func (m *MemStore) OpenRead(_ context.Context, name string) (io.ReadCloser, error) {
	m.mu.RLock()
	blob, ok := m.entries[name]
	m.mu.RUnlock()

	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	return io.NopCloser(bytes.NewReader(blob)), nil
}

// OpenWrite implements FileStore.
func (m *MemStore) OpenWrite(_ context.Context, name string) (io.WriteCloser, error) {
	return &commitWriter{commit: func(b []byte) error {
		m.mu.Lock()
		m.entries[name] = b
		m.mu.Unlock()
		return nil
	}}, nil
}

// Len returns the number of stored entries.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// commitWriter buffers writes and hands the full content to commit on Close.
type commitWriter struct {
	buf    bytes.Buffer
	commit func([]byte) error
	closed bool
}

func (w *commitWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *commitWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.commit(bytes.Clone(w.buf.Bytes()))
}
