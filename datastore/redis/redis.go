/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package redis implements datastore.Store on Redis through a rotating
// connection Pool.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/suparena/kvobject/datastore"
)

// Store implements datastore.Store on Redis.
type Store struct {
	pool *Pool
}

var (
	_ datastore.Store   = (*Store)(nil)
	_ datastore.Batcher = (*Store)(nil)
)

// New creates a Store backed by a new Pool.
func New(cfg Config, logger zerolog.Logger) *Store {
	return &Store{pool: NewPool(cfg, logger)}
}

// NewWithPool creates a Store on an existing Pool.
func NewWithPool(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the connection source used by the store.
func (s *Store) Pool() *Pool {
	return s.pool
}

func (s *Store) HGet(ctx context.Context, key, field string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.pool.Do(ctx, func(c *goredis.Client) error {
		v, err := c.HGet(ctx, key, field).Result()
		if errors.Is(err, goredis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		value, found = v, true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("HGET %s %s: %w", key, field, err)
	}
	return value, found, nil
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	var out map[string]string
	err := s.pool.Do(ctx, func(c *goredis.Client) (err error) {
		out, err = c.HGetAll(ctx, key).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("HGETALL %s: %w", key, err)
	}
	return out, nil
}

func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	var out []string
	err := s.pool.Do(ctx, func(c *goredis.Client) (err error) {
		out, err = c.SMembers(ctx, key).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("SMEMBERS %s: %w", key, err)
	}
	return out, nil
}

func (s *Store) SIsMember(ctx context.Context, key, member string) (bool, error) {
	var ok bool
	err := s.pool.Do(ctx, func(c *goredis.Client) (err error) {
		ok, err = c.SIsMember(ctx, key, member).Result()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("SISMEMBER %s: %w", key, err)
	}
	return ok, nil
}

func (s *Store) ZRange(ctx context.Context, key string, start, stop int64, reverse bool) ([]string, error) {
	var out []string
	err := s.pool.Do(ctx, func(c *goredis.Client) (err error) {
		if reverse {
			out, err = c.ZRevRange(ctx, key, start, stop).Result()
		} else {
			out, err = c.ZRange(ctx, key, start, stop).Result()
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ZRANGE %s: %w", key, err)
	}
	return out, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := s.pool.Do(ctx, func(c *goredis.Client) (err error) {
		n, err = c.Exists(ctx, key).Result()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("EXISTS %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *Store) HSet(ctx context.Context, key, field, value string) error {
	return s.write(ctx, "HSET", key, func(c goredis.Cmdable) error {
		return c.HSet(ctx, key, field, value).Err()
	})
}

func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.write(ctx, "SADD", key, func(c goredis.Cmdable) error {
		return c.SAdd(ctx, key, toArgs(members)...).Err()
	})
}

func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.write(ctx, "SREM", key, func(c goredis.Cmdable) error {
		return c.SRem(ctx, key, toArgs(members)...).Err()
	})
}

func (s *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return s.write(ctx, "ZADD", key, func(c goredis.Cmdable) error {
		return c.ZAdd(ctx, key, goredis.Z{Score: score, Member: member}).Err()
	})
}

func (s *Store) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.write(ctx, "ZREM", key, func(c goredis.Cmdable) error {
		return c.ZRem(ctx, key, toArgs(members)...).Err()
	})
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.write(ctx, "DEL", keys[0], func(c goredis.Cmdable) error {
		return c.Del(ctx, keys...).Err()
	})
}

// Batch runs the writes issued by fn inside MULTI/EXEC on one connection.
func (s *Store) Batch(ctx context.Context, fn func(w datastore.Writer) error) error {
	err := s.pool.Do(ctx, func(c *goredis.Client) error {
		_, err := c.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			return fn(pipeWriter{pipe: pipe})
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("MULTI/EXEC: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.pool.Close()
}

func (s *Store) write(ctx context.Context, cmd, key string, fn func(c goredis.Cmdable) error) error {
	err := s.pool.Do(ctx, func(c *goredis.Client) error {
		return fn(c)
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", cmd, key, err)
	}
	return nil
}

func toArgs(members []string) []interface{} {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return args
}

// pipeWriter queues commands on a transaction pipeline. Errors surface from EXEC.
type pipeWriter struct {
	pipe goredis.Pipeliner
}

func (w pipeWriter) HSet(ctx context.Context, key, field, value string) error {
	w.pipe.HSet(ctx, key, field, value)
	return nil
}

func (w pipeWriter) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) > 0 {
		w.pipe.SAdd(ctx, key, toArgs(members)...)
	}
	return nil
}

func (w pipeWriter) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) > 0 {
		w.pipe.SRem(ctx, key, toArgs(members)...)
	}
	return nil
}

func (w pipeWriter) ZAdd(ctx context.Context, key string, score float64, member string) error {
	w.pipe.ZAdd(ctx, key, goredis.Z{Score: score, Member: member})
	return nil
}

func (w pipeWriter) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) > 0 {
		w.pipe.ZRem(ctx, key, toArgs(members)...)
	}
	return nil
}

func (w pipeWriter) Del(ctx context.Context, keys ...string) error {
	if len(keys) > 0 {
		w.pipe.Del(ctx, keys...)
	}
	return nil
}
