/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/suparena/kvobject"
	"github.com/suparena/kvobject/datastore"
	"github.com/suparena/kvobject/datastore/memory"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%016x", n)
	}
}

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	clock     *fakeClock
	mapper    *kvobject.Mapper
	orders    *kvobject.Class
	items     *kvobject.Class
	customers *kvobject.Class
}

func newFixture(t *testing.T, opts ...kvobject.Option) *fixture {
	t.Helper()
	return newFixtureOn(t, memory.New(), opts...)
}

func newFixtureOn(t *testing.T, store datastore.Store, opts ...kvobject.Option) *fixture {
	t.Helper()
	clock := newFakeClock()
	opts = append([]kvobject.Option{
		kvobject.WithClock(clock.Now),
		kvobject.WithIDGenerator(sequentialIDs()),
	}, opts...)
	m := kvobject.New(store, opts...)

	f := &fixture{
		ctx:    context.Background(),
		clock:  clock,
		mapper: m,
	}
	if ms, ok := store.(*memory.Store); ok {
		f.store = ms
	}
	f.orders = m.MustRegister(kvobject.ClassConfig{
		Name:        "Order",
		Formats:     map[string]kvobject.Format{"total": kvobject.FormatNumber},
		SortBy:      []string{"total"},
		Collections: []string{"items"},
	})
	f.items = m.MustRegister(kvobject.ClassConfig{
		Name:    "Item",
		Formats: map[string]kvobject.Format{"qty": kvobject.FormatNumber},
	})
	f.customers = m.MustRegister(kvobject.ClassConfig{
		Name:           "Customer",
		TimeIrrelevant: true,
	})
	return f
}

func (f *fixture) save(t *testing.T, e *kvobject.Entity) *kvobject.Entity {
	t.Helper()
	if err := e.Save(f.ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return e
}

func (f *fixture) get(t *testing.T, e *kvobject.Entity, field string) any {
	t.Helper()
	v, err := e.Get(f.ctx, field)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", field, err)
	}
	return v
}

func ids(entities []*kvobject.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID())
	}
	return out
}

var errInjected = errors.New("injected failure")

// failingZAdd wraps a store so that every ZAdd fails, inside batches too.
type failingZAdd struct {
	*memory.Store
	batches int
}

func (s *failingZAdd) ZAdd(context.Context, string, float64, string) error {
	return errInjected
}

func (s *failingZAdd) Batch(ctx context.Context, fn func(w datastore.Writer) error) error {
	s.batches++
	return s.Store.Batch(ctx, func(w datastore.Writer) error {
		return fn(zaddFails{w})
	})
}

type zaddFails struct {
	datastore.Writer
}

func (zaddFails) ZAdd(context.Context, string, float64, string) error {
	return errInjected
}

// noBatch hides the Batcher implementation of the wrapped store.
type noBatch struct {
	datastore.Store
}
