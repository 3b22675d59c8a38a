package cache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces entry keys in Redis.
const DefaultRedisPrefix = "httpservice:cache:"

// RedisStore keeps one Redis string per entry.
//
// Usage:
//
//	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"localhost:6379"}})
//	store := cache.New(cache.NewRedisStore(rdb, cache.WithRedisExpiry(time.Hour)))
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	expiry time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix overrides DefaultRedisPrefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithRedisExpiry sets a Redis-side expiry on every entry so abandoned
// entries are reclaimed. It does not replace the TTL check done by Store.
// Default: 0 (no expiry).
func WithRedisExpiry(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.expiry = d
	}
}

// NewRedisStore creates a RedisStore over client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenRead implements FileStore.
func (s *RedisStore) OpenRead(ctx context.Context, name string) (io.ReadCloser, error) {
	blob, err := s.client.Get(ctx, s.prefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &fs.PathError{Op: "get", Path: name, Err: fs.ErrNotExist}
	}
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(blob)), nil
}

// OpenWrite implements FileStore. The entry is written with SET on Close.
func (s *RedisStore) OpenWrite(ctx context.Context, name string) (io.WriteCloser, error) {
	key := s.prefix + name
	return &commitWriter{commit: func(b []byte) error {
		return s.client.Set(ctx, key, b, s.expiry).Err()
	}}, nil
}
