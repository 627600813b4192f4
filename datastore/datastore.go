/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
)

// Reader is the read half of the store protocol.
type Reader interface {
	// HGet returns a single hash field. found is false when the key or field is absent.
	HGet(ctx context.Context, key, field string) (value string, found bool, err error)

	HGetAll(ctx context.Context, key string) (map[string]string, error)

	SMembers(ctx context.Context, key string) ([]string, error)

	SIsMember(ctx context.Context, key, member string) (bool, error)

	// ZRange returns members ordered by score (ties broken by member), inclusive of
	// both start and stop. A negative stop counts from the end, so -1 is the last member.
	ZRange(ctx context.Context, key string, start, stop int64, reverse bool) ([]string, error)

	Exists(ctx context.Context, key string) (bool, error)
}

// Writer is the write half of the store protocol.
type Writer interface {
	HSet(ctx context.Context, key, field, value string) error

	SAdd(ctx context.Context, key string, members ...string) error

	SRem(ctx context.Context, key string, members ...string) error

	ZAdd(ctx context.Context, key string, score float64, member string) error

	ZRem(ctx context.Context, key string, members ...string) error

	Del(ctx context.Context, keys ...string) error
}

type Store interface {
	Reader
	Writer

	Close() error
}

// Batcher is implemented by stores that can apply a group of writes atomically.
// Writes issued through w inside fn are applied together after fn returns nil.
type Batcher interface {
	Batch(ctx context.Context, fn func(w Writer) error) error
}
