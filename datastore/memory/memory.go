/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-process implementation of datastore.Store.
// It backs the mapper in tests and can inject read or write failures.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/suparena/kvobject/datastore"
)

// Store is an in-memory datastore.Store. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	hashes   map[string]map[string]string
	sets     map[string]map[string]struct{}
	zsets    map[string]map[string]float64
	readErr  error
	writeErr error
}

var (
	_ datastore.Store   = (*Store)(nil)
	_ datastore.Batcher = (*Store)(nil)
)

// New creates an empty Store
func New() *Store {
	return &Store{
		hashes: make(map[string]map[string]string),
		sets:   make(map[string]map[string]struct{}),
		zsets:  make(map[string]map[string]float64),
	}
}

// WithReadError makes every read operation return err
func (m *Store) WithReadError(err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
	return m
}

// WithWriteError makes every write operation return err
func (m *Store) WithWriteError(err error) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
	return m
}

func (m *Store) HGet(ctx context.Context, key, field string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return "", false, m.readErr
	}
	v, ok := m.hashes[key][field]
	return v, ok, nil
}

func (m *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		out = append(out, member)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Store) SIsMember(ctx context.Context, key, member string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return false, m.readErr
	}
	_, ok := m.sets[key][member]
	return ok, nil
}

func (m *Store) ZRange(ctx context.Context, key string, start, stop int64, reverse bool) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return datastore.SortedRange(m.zsets[key], start, stop, reverse), nil
}

func (m *Store) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readErr != nil {
		return false, m.readErr
	}
	_, h := m.hashes[key]
	_, s := m.sets[key]
	_, z := m.zsets[key]
	return h || s || z, nil
}

func (m *Store) HSet(ctx context.Context, key, field, value string) error {
	return m.write(func() { m.hset(key, field, value) })
}

func (m *Store) SAdd(ctx context.Context, key string, members ...string) error {
	return m.write(func() { m.sadd(key, members) })
}

func (m *Store) SRem(ctx context.Context, key string, members ...string) error {
	return m.write(func() { m.srem(key, members) })
}

func (m *Store) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return m.write(func() { m.zadd(key, score, member) })
}

func (m *Store) ZRem(ctx context.Context, key string, members ...string) error {
	return m.write(func() { m.zrem(key, members) })
}

func (m *Store) Del(ctx context.Context, keys ...string) error {
	return m.write(func() { m.del(keys) })
}

// Batch records the writes issued by fn and applies them under a single lock.
// Nothing is applied if fn returns an error.
func (m *Store) Batch(ctx context.Context, fn func(w datastore.Writer) error) error {
	b := &batch{}
	if err := fn(b); err != nil {
		return err
	}
	return m.write(func() {
		for _, op := range b.ops {
			op(m)
		}
	})
}

func (m *Store) Close() error {
	return nil
}

// Helper methods for testing

// Keys returns every key currently holding data, sorted
func (m *Store) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for k := range m.hashes {
		seen[k] = struct{}{}
	}
	for k := range m.sets {
		seen[k] = struct{}{}
	}
	for k := range m.zsets {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear removes all data
func (m *Store) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes = make(map[string]map[string]string)
	m.sets = make(map[string]map[string]struct{})
	m.zsets = make(map[string]map[string]float64)
}

func (m *Store) write(apply func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	apply()
	return nil
}

func (m *Store) hset(key, field, value string) {
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	h[field] = value
}

func (m *Store) sadd(key string, members []string) {
	if len(members) == 0 {
		return
	}
	s, ok := m.sets[key]
	if !ok {
		s = make(map[string]struct{})
		m.sets[key] = s
	}
	for _, member := range members {
		s[member] = struct{}{}
	}
}

func (m *Store) srem(key string, members []string) {
	s, ok := m.sets[key]
	if !ok {
		return
	}
	for _, member := range members {
		delete(s, member)
	}
	if len(s) == 0 {
		delete(m.sets, key)
	}
}

func (m *Store) zadd(key string, score float64, member string) {
	z, ok := m.zsets[key]
	if !ok {
		z = make(map[string]float64)
		m.zsets[key] = z
	}
	z[member] = score
}

func (m *Store) zrem(key string, members []string) {
	z, ok := m.zsets[key]
	if !ok {
		return
	}
	for _, member := range members {
		delete(z, member)
	}
	if len(z) == 0 {
		delete(m.zsets, key)
	}
}

func (m *Store) del(keys []string) {
	for _, k := range keys {
		delete(m.hashes, k)
		delete(m.sets, k)
		delete(m.zsets, k)
	}
}

// batch queues writes until the surrounding Batch call applies them.
type batch struct {
	ops []func(*Store)
}

func (b *batch) HSet(ctx context.Context, key, field, value string) error {
	b.ops = append(b.ops, func(m *Store) { m.hset(key, field, value) })
	return nil
}

func (b *batch) SAdd(ctx context.Context, key string, members ...string) error {
	b.ops = append(b.ops, func(m *Store) { m.sadd(key, members) })
	return nil
}

func (b *batch) SRem(ctx context.Context, key string, members ...string) error {
	b.ops = append(b.ops, func(m *Store) { m.srem(key, members) })
	return nil
}

func (b *batch) ZAdd(ctx context.Context, key string, score float64, member string) error {
	b.ops = append(b.ops, func(m *Store) { m.zadd(key, score, member) })
	return nil
}

func (b *batch) ZRem(ctx context.Context, key string, members ...string) error {
	b.ops = append(b.ops, func(m *Store) { m.zrem(key, members) })
	return nil
}

func (b *batch) Del(ctx context.Context, keys ...string) error {
	b.ops = append(b.ops, func(m *Store) { m.del(keys) })
	return nil
}
