/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package bolt_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/suparena/kvobject/datastore"
	"github.com/suparena/kvobject/datastore/bolt"
	"github.com/suparena/kvobject/datastore/storetest"
)

func openTemp(t *testing.T, path string) *bolt.Store {
	t.Helper()
	s, err := bolt.Open(path, bolt.Options{NoSync: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) datastore.Store {
		s := openTemp(t, filepath.Join(t.TempDir(), "kv.db"))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s := openTemp(t, path)
	if err := s.HSet(ctx, "Order:o1_h", "total", "42"); err != nil {
		t.Fatalf("HSet failed: %v", err)
	}
	if err := s.ZAdd(ctx, "Orders::created_at", -1.5, "Order:o1_h"); err != nil {
		t.Fatalf("ZAdd failed: %v", err)
	}
	if err := s.ZAdd(ctx, "Orders::created_at", 2.25, "Order:o2_h"); err != nil {
		t.Fatalf("ZAdd failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s = openTemp(t, path)
	defer s.Close()

	v, found, err := s.HGet(ctx, "Order:o1_h", "total")
	if err != nil || !found || v != "42" {
		t.Fatalf("HGet after reopen = %q, %v, %v", v, found, err)
	}
	got, err := s.ZRange(ctx, "Orders::created_at", 0, -1, false)
	if err != nil {
		t.Fatalf("ZRange failed: %v", err)
	}
	if len(got) != 2 || got[0] != "Order:o1_h" || got[1] != "Order:o2_h" {
		t.Fatalf("expected negative score first, got %v", got)
	}
}

func TestEmptySetIsRemoved(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t, filepath.Join(t.TempDir(), "kv.db"))
	defer s.Close()

	if err := s.SAdd(ctx, "Orders", "Order:o1"); err != nil {
		t.Fatalf("SAdd failed: %v", err)
	}
	if err := s.SRem(ctx, "Orders", "Order:o1"); err != nil {
		t.Fatalf("SRem failed: %v", err)
	}
	ok, err := s.Exists(ctx, "Orders")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Fatal("expected empty set key to be removed")
	}
}
