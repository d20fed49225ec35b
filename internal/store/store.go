package store

import "context"

// Store is the key-value primitive set the feed is built on. Every
// operation must be atomic per key; nothing spans keys.
type Store interface {
	// Incr atomically increments the named counter and returns the new value.
	Incr(ctx context.Context, name string) (int64, error)

	// HGet returns a single hash field. ok is false when the key or field is absent.
	HGet(ctx context.Context, key, field string) (value string, ok bool, err error)
	// HGetAll returns every field of a hash, or an empty map when the key is absent.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HSet writes all fields in one operation.
	HSet(ctx context.Context, key string, fields map[string]string) error
	// HSetNX writes field only when it is not already present.
	HSetNX(ctx context.Context, key, field, value string) (bool, error)

	// SAdd adds member to the set and reports whether it was newly added.
	SAdd(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)

	// LPush inserts value at the head of the list, creating it if needed.
	LPush(ctx context.Context, key, value string) error
	// LRange returns elements start..stop inclusive, head first. Negative
	// indexes count from the tail, as in Redis.
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}

// NormalizeRange resolves Redis-style inclusive indexes against a list of
// length n. ok is false when the range selects nothing.
func NormalizeRange(start, stop, n int64) (from, to int64, ok bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return 0, 0, false
	}
	return start, stop, true
}
