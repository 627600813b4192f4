/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/suparena/kvobject"
	"github.com/suparena/kvobject/codec"
	"github.com/suparena/kvobject/datastore/memory"
	kverrors "github.com/suparena/kvobject/errors"
)

func seed(t *testing.T) (*memory.Store, *kvobject.Entity) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := kvobject.New(store, kvobject.WithClock(func() time.Time { return clock }))
	orders := m.MustRegister(kvobject.ClassConfig{Name: "Order", SaveHistory: true})

	o := orders.New(map[string]any{"order_id": "o1", "total": 42})
	if err := o.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return store, o
}

func TestInspect(t *testing.T) {
	ctx := context.Background()
	store, o := seed(t)

	t.Run("Hash", func(t *testing.T) {
		out, err := inspect(ctx, store, codec.JSON, []string{"hash", o.Key()}, zerolog.Nop())
		if err != nil {
			t.Fatalf("inspect failed: %v", err)
		}
		fields := out.(map[string]string)
		if fields["total"] != "42" || fields["class"] != "Order" {
			t.Fatalf("unexpected hash: %v", fields)
		}
	})

	t.Run("HashMissing", func(t *testing.T) {
		_, err := inspect(ctx, store, codec.JSON, []string{"hash", "Order:nope"}, zerolog.Nop())
		if !kverrors.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("Members", func(t *testing.T) {
		out, err := inspect(ctx, store, codec.JSON, []string{"members", "Orders"}, zerolog.Nop())
		if err != nil {
			t.Fatalf("inspect failed: %v", err)
		}
		if got := out.([]string); len(got) != 1 || got[0] != "Order:o1" {
			t.Fatalf("unexpected members: %v", got)
		}
	})

	t.Run("Range", func(t *testing.T) {
		out, err := inspect(ctx, store, codec.JSON, []string{"range", "Orders::created_at", "3"}, zerolog.Nop())
		if err != nil {
			t.Fatalf("inspect failed: %v", err)
		}
		if got := out.([]string); len(got) != 1 || got[0] != "Order:o1_h" {
			t.Fatalf("unexpected range: %v", got)
		}
		if _, err := inspect(ctx, store, codec.JSON, []string{"range", "Orders::created_at", "x"}, zerolog.Nop()); !kverrors.IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("History", func(t *testing.T) {
		out, err := inspect(ctx, store, codec.JSON, []string{"history", o.Key()}, zerolog.Nop())
		if err != nil {
			t.Fatalf("inspect failed: %v", err)
		}
		snaps := out.([]kvobject.Snapshot)
		if len(snaps) != 1 || snaps[0].Attributes["total"] != "42" {
			t.Fatalf("unexpected history: %+v", snaps)
		}
	})

	t.Run("UnknownCommand", func(t *testing.T) {
		if _, err := inspect(ctx, store, codec.JSON, []string{"scan", "x"}, zerolog.Nop()); !kverrors.IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestRun(t *testing.T) {
	t.Run("Version", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), []string{"-version"}, &stdout, &stderr); code != 0 {
			t.Fatalf("exit code %d", code)
		}
		if !strings.Contains(stdout.String(), kvobject.Version) {
			t.Fatalf("unexpected output: %s", stdout.String())
		}
	})

	t.Run("Usage", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), []string{"hash"}, &stdout, &stderr); code != 2 {
			t.Fatalf("exit code %d", code)
		}
		if !strings.Contains(stderr.String(), "usage:") {
			t.Fatalf("expected usage, got %s", stderr.String())
		}
	})

	t.Run("MemoryBackend", func(t *testing.T) {
		t.Setenv("KVOBJECT_BACKEND", "memory")
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), []string{"members", "Orders"}, &stdout, &stderr); code != 0 {
			t.Fatalf("exit code %d: %s", code, stderr.String())
		}
		var got []string
		if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty store, got %v", got)
		}
	})
}
