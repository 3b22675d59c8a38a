// Package cache stores raw HTTP response bodies keyed by a request
// fingerprint and rejects entries older than a caller-supplied TTL.
//
// Each entry is a single blob laid out as:
//
//	[response bytes][8-byte little-endian capture time (Unix nanoseconds)]
//
// The blob lives in a pluggable FileStore backend:
//
//   - DirStore: one file per entry under an application-private directory
//   - MemStore: process-local map, used by default and in tests
//   - RedisStore: one key per entry in Redis
//   - SQLStore: one row per entry in a SQL table (sqlite, Postgres)
//
// Caching is best-effort. Store never returns an error to its caller: a
// missing, unreadable, corrupt or stale entry is a miss, and a failed write
// is logged and dropped.
//
// # Quick Start
//
//	store := cache.New(cache.NewDirStore("/var/cache/myapp"))
//	key := cache.Fingerprint(cache.SHA1, "q=foo", nil, "https://api.example.com/search")
//
//	if body, ok := store.Get(ctx, key, 10*time.Minute); ok {
//	    // serve body
//	}
//	store.Set(ctx, key, fresh)
package cache
