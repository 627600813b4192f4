/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package bolt implements datastore.Store in a local bbolt file.
//
// Three top-level buckets hold hashes, sets and sorted sets. Each store key is
// a nested bucket inside the matching top-level bucket: hash fields map to
// values, set members map to a marker byte, sorted-set members map to their
// score encoded as 8 big-endian bytes.
package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"go.etcd.io/bbolt"

	"github.com/suparena/kvobject/datastore"
)

var (
	hashesBucket = []byte("hashes")
	setsBucket   = []byte("sets")
	zsetsBucket  = []byte("zsets")

	present = []byte{1}
)

// Options configures the bbolt file.
type Options struct {
	// Timeout waits for the file lock. Default: 10s
	Timeout time.Duration
	// NoSync skips fsync after each commit; suitable for tests only.
	NoSync bool
}

// Store implements datastore.Store on bbolt.
type Store struct {
	db *bbolt.DB
}

var (
	_ datastore.Store   = (*Store)(nil)
	_ datastore.Batcher = (*Store)(nil)
)

// Open opens or creates the database at path.
func Open(path string, opt Options) (*Store, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.Timeout > 0 {
		bopt.Timeout = opt.Timeout
	}
	bopt.NoSync = opt.NoSync

	db, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, fmt.Errorf("bolt: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{hashesBucket, setsBucket, zsetsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt: init buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) HGet(_ context.Context, key, field string) (value string, found bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(hashesBucket).Bucket([]byte(key))
		if b == nil {
			return nil
		}
		k, v := b.Cursor().Seek([]byte(field))
		if k != nil && bytes.Equal(k, []byte(field)) {
			value, found = string(v), true
		}
		return nil
	})
	return value, found, err
}

func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	out := make(map[string]string)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(hashesBucket).Bucket([]byte(key))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			out[string(k)] = string(v)
			return nil
		})
	})
	return out, err
}

func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(setsBucket).Bucket([]byte(key))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}

func (s *Store) SIsMember(_ context.Context, key, member string) (ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(setsBucket).Bucket([]byte(key))
		ok = b != nil && b.Get([]byte(member)) != nil
		return nil
	})
	return ok, err
}

func (s *Store) ZRange(_ context.Context, key string, start, stop int64, reverse bool) ([]string, error) {
	scores := make(map[string]float64)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(zsetsBucket).Bucket([]byte(key))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			scores[string(k)] = decodeScore(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return datastore.SortedRange(scores, start, stop, reverse), nil
}

func (s *Store) Exists(_ context.Context, key string) (ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		for _, parent := range [][]byte{hashesBucket, setsBucket, zsetsBucket} {
			if tx.Bucket(parent).Bucket([]byte(key)) != nil {
				ok = true
				return nil
			}
		}
		return nil
	})
	return ok, err
}

func (s *Store) HSet(ctx context.Context, key, field, value string) error {
	return s.update(func(w txWriter) error { return w.HSet(ctx, key, field, value) })
}

func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	return s.update(func(w txWriter) error { return w.SAdd(ctx, key, members...) })
}

func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	return s.update(func(w txWriter) error { return w.SRem(ctx, key, members...) })
}

func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return s.update(func(w txWriter) error { return w.ZAdd(ctx, key, score, member) })
}

func (s *Store) ZRem(ctx context.Context, key string, members ...string) error {
	return s.update(func(w txWriter) error { return w.ZRem(ctx, key, members...) })
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.update(func(w txWriter) error { return w.Del(ctx, keys...) })
}

// Batch applies every write issued by fn in one bbolt transaction. The
// transaction rolls back if fn returns an error.
func (s *Store) Batch(_ context.Context, fn func(w datastore.Writer) error) error {
	return s.update(func(w txWriter) error { return fn(w) })
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) update(fn func(w txWriter) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(txWriter{tx: tx})
	})
}

// txWriter applies writes inside an open read-write transaction.
type txWriter struct {
	tx *bbolt.Tx
}

func (w txWriter) HSet(_ context.Context, key, field, value string) error {
	b, err := w.tx.Bucket(hashesBucket).CreateBucketIfNotExists([]byte(key))
	if err != nil {
		return fmt.Errorf("HSet %s: %w", key, err)
	}
	return b.Put([]byte(field), []byte(value))
}

func (w txWriter) SAdd(_ context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	b, err := w.tx.Bucket(setsBucket).CreateBucketIfNotExists([]byte(key))
	if err != nil {
		return fmt.Errorf("SAdd %s: %w", key, err)
	}
	for _, m := range members {
		if err := b.Put([]byte(m), present); err != nil {
			return fmt.Errorf("SAdd %s: %w", key, err)
		}
	}
	return nil
}

func (w txWriter) SRem(_ context.Context, key string, members ...string) error {
	return w.remove(setsBucket, key, members)
}

func (w txWriter) ZAdd(_ context.Context, key string, score float64, member string) error {
	b, err := w.tx.Bucket(zsetsBucket).CreateBucketIfNotExists([]byte(key))
	if err != nil {
		return fmt.Errorf("ZAdd %s: %w", key, err)
	}
	return b.Put([]byte(member), encodeScore(score))
}

func (w txWriter) ZRem(_ context.Context, key string, members ...string) error {
	return w.remove(zsetsBucket, key, members)
}

func (w txWriter) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		for _, parent := range [][]byte{hashesBucket, setsBucket, zsetsBucket} {
			p := w.tx.Bucket(parent)
			if p.Bucket([]byte(key)) == nil {
				continue
			}
			if err := p.DeleteBucket([]byte(key)); err != nil {
				return fmt.Errorf("Del %s: %w", key, err)
			}
		}
	}
	return nil
}

// remove deletes members and drops the key once it is empty.
func (w txWriter) remove(parent []byte, key string, members []string) error {
	p := w.tx.Bucket(parent)
	b := p.Bucket([]byte(key))
	if b == nil {
		return nil
	}
	for _, m := range members {
		if err := b.Delete([]byte(m)); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	if k, _ := b.Cursor().First(); k == nil {
		return p.DeleteBucket([]byte(key))
	}
	return nil
}

func encodeScore(score float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(score))
	return buf
}

func decodeScore(b []byte) float64 {
	if len(b) != 8 {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}
