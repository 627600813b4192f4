/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package storetest holds the conformance suite every datastore.Store backend runs.
package storetest

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/matryer/is"

	"github.com/suparena/kvobject/datastore"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) datastore.Store

// Run exercises the full store protocol against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("Hash", func(t *testing.T) {
		is := is.New(t)
		s := newStore(t)

		_, found, err := s.HGet(ctx, "Order:o1_h", "total")
		is.NoErr(err)
		is.True(!found)

		is.NoErr(s.HSet(ctx, "Order:o1_h", "total", "42"))
		is.NoErr(s.HSet(ctx, "Order:o1_h", "class", "Order"))
		is.NoErr(s.HSet(ctx, "Order:o1_h", "total", "43"))

		v, found, err := s.HGet(ctx, "Order:o1_h", "total")
		is.NoErr(err)
		is.True(found)
		is.Equal(v, "43")

		all, err := s.HGetAll(ctx, "Order:o1_h")
		is.NoErr(err)
		is.Equal(all, map[string]string{"total": "43", "class": "Order"})

		empty, err := s.HGetAll(ctx, "Order:missing_h")
		is.NoErr(err)
		is.Equal(len(empty), 0)
	})

	t.Run("Set", func(t *testing.T) {
		is := is.New(t)
		s := newStore(t)

		is.NoErr(s.SAdd(ctx, "Orders", "Order:o1", "Order:o2"))
		is.NoErr(s.SAdd(ctx, "Orders", "Order:o2"))

		members, err := s.SMembers(ctx, "Orders")
		is.NoErr(err)
		is.Equal(sorted(members), []string{"Order:o1", "Order:o2"})

		ok, err := s.SIsMember(ctx, "Orders", "Order:o1")
		is.NoErr(err)
		is.True(ok)

		is.NoErr(s.SRem(ctx, "Orders", "Order:o1"))
		ok, err = s.SIsMember(ctx, "Orders", "Order:o1")
		is.NoErr(err)
		is.True(!ok)

		none, err := s.SMembers(ctx, "Missing")
		is.NoErr(err)
		is.Equal(len(none), 0)
	})

	t.Run("SortedSet", func(t *testing.T) {
		is := is.New(t)
		s := newStore(t)

		is.NoErr(s.ZAdd(ctx, "Orders::created_at", 300, "Order:c_h"))
		is.NoErr(s.ZAdd(ctx, "Orders::created_at", 100, "Order:a_h"))
		is.NoErr(s.ZAdd(ctx, "Orders::created_at", 200, "Order:b_h"))

		asc, err := s.ZRange(ctx, "Orders::created_at", 0, -1, false)
		is.NoErr(err)
		is.Equal(asc, []string{"Order:a_h", "Order:b_h", "Order:c_h"})

		desc, err := s.ZRange(ctx, "Orders::created_at", 0, 1, true)
		is.NoErr(err)
		is.Equal(desc, []string{"Order:c_h", "Order:b_h"})

		// re-adding a member moves it
		is.NoErr(s.ZAdd(ctx, "Orders::created_at", 400, "Order:a_h"))
		desc, err = s.ZRange(ctx, "Orders::created_at", 0, 0, true)
		is.NoErr(err)
		is.Equal(desc, []string{"Order:a_h"})

		is.NoErr(s.ZRem(ctx, "Orders::created_at", "Order:a_h"))
		asc, err = s.ZRange(ctx, "Orders::created_at", 0, -1, false)
		is.NoErr(err)
		is.Equal(asc, []string{"Order:b_h", "Order:c_h"})

		none, err := s.ZRange(ctx, "Missing::created_at", 0, 4, true)
		is.NoErr(err)
		is.Equal(len(none), 0)
	})

	t.Run("ExistsAndDel", func(t *testing.T) {
		is := is.New(t)
		s := newStore(t)

		is.NoErr(s.HSet(ctx, "h", "f", "v"))
		is.NoErr(s.SAdd(ctx, "s", "m"))
		is.NoErr(s.ZAdd(ctx, "z", 1, "m"))

		for _, k := range []string{"h", "s", "z"} {
			ok, err := s.Exists(ctx, k)
			is.NoErr(err)
			is.True(ok)
		}
		ok, err := s.Exists(ctx, "nothing")
		is.NoErr(err)
		is.True(!ok)

		is.NoErr(s.Del(ctx, "h", "s", "z", "nothing"))
		for _, k := range []string{"h", "s", "z"} {
			ok, err := s.Exists(ctx, k)
			is.NoErr(err)
			is.True(!ok)
		}
	})

	t.Run("Batch", func(t *testing.T) {
		s := newStore(t)
		b, ok := s.(datastore.Batcher)
		if !ok {
			t.Skip("store does not implement datastore.Batcher")
		}
		is := is.New(t)

		err := b.Batch(ctx, func(w datastore.Writer) error {
			if err := w.HSet(ctx, "Order:o1_h", "class", "Order"); err != nil {
				return err
			}
			if err := w.SAdd(ctx, "Orders", "Order:o1"); err != nil {
				return err
			}
			return w.ZAdd(ctx, "Orders::created_at", 10, "Order:o1_h")
		})
		is.NoErr(err)

		v, _, err := s.HGet(ctx, "Order:o1_h", "class")
		is.NoErr(err)
		is.Equal(v, "Order")
		member, err := s.SIsMember(ctx, "Orders", "Order:o1")
		is.NoErr(err)
		is.True(member)

		boom := errors.New("boom")
		err = b.Batch(ctx, func(w datastore.Writer) error {
			if err := w.HSet(ctx, "Order:o2_h", "class", "Order"); err != nil {
				return err
			}
			return boom
		})
		is.True(errors.Is(err, boom))

		exists, err := s.Exists(ctx, "Order:o2_h")
		is.NoErr(err)
		is.True(!exists) // aborted batch must not apply
	})
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
