package cache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// FileStore is the blob backend behind a Store.
//
// OpenRead must return an error matching fs.ErrNotExist when name has no
// entry. A writer returned by OpenWrite commits its content on Close and
// replaces any previous entry.
type FileStore interface {
	OpenRead(ctx context.Context, name string) (io.ReadCloser, error)
	OpenWrite(ctx context.Context, name string) (io.WriteCloser, error)
}

// Store reads and writes TTL-checked response entries over a FileStore.
//
// Concurrent Gets for the same key share a single backend read. Writes are
// not serialized; the last writer wins.
type Store struct {
	backend FileStore
	logger  zerolog.Logger
	now     func() time.Time
	reads   singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report cache failures.
// Default: zerolog.Nop().
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithClock overrides the time source used to stamp and age entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store over backend.
func New(backend FileStore, opts ...Option) *Store {
	if backend == nil {
		panic("cache: nil backend")
	}

	s := &Store{
		backend: backend,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Get returns the body stored under key if it was captured less than ttl ago.
// Any failure, including a non-positive ttl, is reported as a miss.
// Concurrent reads of one key share a single backend read, which is not
// bound to any one caller's cancellation.
func (s *Store) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool) {
	if ttl <= 0 {
		return nil, false
	}

	v, err, _ := s.reads.Do(key, func() (interface{}, error) {
		return s.read(context.WithoutCancel(ctx), key)
	})
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Error().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, false
	}

	body, captured, err := decodeEntry(v.([]byte))
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("cache entry rejected")
		return nil, false
	}

	age := s.now().Sub(captured)
	if age >= ttl {
		s.logger.Debug().
			Str("key", key).
			Dur("age", age).
			Dur("ttl", ttl).
			Msg("cache entry stale")
		return nil, false
	}

	return bytes.Clone(body), true
}

// Set stores body under key stamped with the current time.
// Failures are logged and dropped.
func (s *Store) Set(ctx context.Context, key string, body []byte) {
	blob := encodeEntry(body, s.now())

	w, err := s.backend.OpenWrite(ctx, key)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("cache open for write failed")
		return
	}

	if _, err := w.Write(blob); err != nil {
		_ = w.Close()
		s.logger.Error().Err(err).Str("key", key).Msg("cache write failed")
		return
	}

	if err := w.Close(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("cache commit failed")
	}
}

func (s *Store) read(ctx context.Context, key string) ([]byte, error) {
	r, err := s.backend.OpenRead(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
