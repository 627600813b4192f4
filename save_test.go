/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject_test

import (
	"errors"
	"testing"

	"github.com/suparena/kvobject"
	"github.com/suparena/kvobject/datastore"
	"github.com/suparena/kvobject/datastore/memory"
)

func TestAtomicSave(t *testing.T) {
	tests := []struct {
		name      string
		atomic    bool
		wrap      func(*failingZAdd) datastore.Store
		wantHash  bool
		wantBatch int
	}{
		{
			name:      "AtomicRollsBack",
			atomic:    true,
			wrap:      func(s *failingZAdd) datastore.Store { return s },
			wantHash:  false,
			wantBatch: 1,
		},
		{
			name:      "SequentialLeavesPartialWrites",
			atomic:    false,
			wrap:      func(s *failingZAdd) datastore.Store { return s },
			wantHash:  true,
			wantBatch: 0,
		},
		{
			name:      "AtomicWithoutBatcherFallsBack",
			atomic:    true,
			wrap:      func(s *failingZAdd) datastore.Store { return noBatch{s} },
			wantHash:  true,
			wantBatch: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := memory.New()
			failing := &failingZAdd{Store: mem}
			f := newFixtureOn(t, tt.wrap(failing), kvobject.WithAtomicSave(tt.atomic))

			o := f.orders.New(map[string]any{"order_id": "o1", "total": 3})
			if err := o.Save(f.ctx); !errors.Is(err, errInjected) {
				t.Fatalf("expected injected failure, got %v", err)
			}

			ok, err := mem.Exists(f.ctx, "Order:o1_h")
			if err != nil {
				t.Fatal(err)
			}
			if ok != tt.wantHash {
				t.Fatalf("hash exists = %v, want %v", ok, tt.wantHash)
			}
			if failing.batches != tt.wantBatch {
				t.Fatalf("batches = %d, want %d", failing.batches, tt.wantBatch)
			}
			if !o.Staged() {
				t.Fatal("failed save must keep the entity staged")
			}
		})
	}
}

func TestAtomicSaveSucceeds(t *testing.T) {
	f := newFixture(t, kvobject.WithAtomicSave(true))
	o := f.save(t, f.orders.New(map[string]any{"order_id": "o1", "total": 3}))

	if o.Staged() {
		t.Fatal("expected entity to be persisted")
	}
	ok, err := f.store.SIsMember(f.ctx, "Orders", "Order:o1")
	if err != nil || !ok {
		t.Fatalf("membership = %v, %v", ok, err)
	}
	got, err := f.store.ZRange(f.ctx, "Orders::total", 0, -1, false)
	if err != nil || len(got) != 1 || got[0] != "Order:o1_h" {
		t.Fatalf("total index = %v, %v", got, err)
	}
}

func TestSaveWriteError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("disk full")
	f.store.WithWriteError(boom)

	if err := f.orders.New(map[string]any{"order_id": "o1"}).Save(f.ctx); !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
}
