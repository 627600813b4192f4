/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject_test

import (
	"reflect"
	"testing"

	"github.com/suparena/kvobject"
	kverrors "github.com/suparena/kvobject/errors"
)

func TestCollection(t *testing.T) {
	f := newFixture(t)
	o := f.save(t, f.orders.New(map[string]any{"order_id": "o1"}))
	i1 := f.save(t, f.items.New(map[string]any{"item_id": "i1"}))
	i2 := f.save(t, f.items.New(map[string]any{"item_id": "i2"}))

	c := o.Collection("items")
	if c.Key() != "Order:o1_h:items" {
		t.Fatalf("Key() = %q", c.Key())
	}

	t.Run("AppendAcceptsPrimaryKeys", func(t *testing.T) {
		if err := c.Append(f.ctx, i1.Key()); err != nil {
			t.Fatal(err)
		}
		ok, err := c.Contains(f.ctx, i1.HashKey())
		if err != nil || !ok {
			t.Fatalf("Contains = %v, %v", ok, err)
		}
		names, _ := f.store.SMembers(f.ctx, o.CollectionsKey())
		if !reflect.DeepEqual(names, []string{"items"}) {
			t.Fatalf("collection names = %v", names)
		}
	})

	t.Run("ReplaceWithEntities", func(t *testing.T) {
		if err := c.Replace(f.ctx, []*kvobject.Entity{i2}); err != nil {
			t.Fatal(err)
		}
		members, _ := c.Members(f.ctx)
		if !reflect.DeepEqual(members, []string{i2.HashKey()}) {
			t.Fatalf("Members = %v", members)
		}
	})

	t.Run("ReplaceWithCollection", func(t *testing.T) {
		other := i1.Collection("items")
		if err := other.Replace(f.ctx, c); err != nil {
			t.Fatal(err)
		}
		n, err := other.Len(f.ctx)
		if err != nil || n != 1 {
			t.Fatalf("Len = %d, %v", n, err)
		}
	})

	t.Run("EntitiesSkipsMissing", func(t *testing.T) {
		if err := c.Replace(f.ctx, []string{i1.Key(), "Item:gone"}); err != nil {
			t.Fatal(err)
		}
		got, err := c.Entities(f.ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(ids(got), []string{"i1"}) {
			t.Fatalf("Entities = %v", ids(got))
		}
	})

	t.Run("ReplaceWithNil", func(t *testing.T) {
		if err := c.Replace(f.ctx, nil); err != nil {
			t.Fatal(err)
		}
		if n, _ := c.Len(f.ctx); n != 0 {
			t.Fatalf("Len = %d", n)
		}
	})

	t.Run("ReplaceWithUnsupported", func(t *testing.T) {
		if err := c.Replace(f.ctx, 42); !kverrors.IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestNewWithExistingIDSeesStoredCollections(t *testing.T) {
	f := newFixture(t)
	o := f.save(t, f.orders.New(map[string]any{"order_id": "o1"}))
	c1 := f.save(t, f.customers.New(map[string]any{"customer_id": "c1"}))
	c2 := f.save(t, f.customers.New(map[string]any{"customer_id": "c2"}))
	if err := o.Reference(f.ctx, c1); err != nil {
		t.Fatal(err)
	}

	again := f.orders.New(map[string]any{"order_id": "o1"})
	if _, ok := f.get(t, again, "customers").(*kvobject.Collection); !ok {
		t.Fatal("stored collection was not recognised on a staged entity")
	}

	again = f.orders.New(map[string]any{"order_id": "o1", "customers": []string{c2.Key()}})
	f.save(t, again)

	members, err := again.Collection("customers").Members(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(members, []string{c2.HashKey()}) {
		t.Fatalf("Members = %v", members)
	}
	if v, _, _ := f.store.HGet(f.ctx, again.HashKey(), "customers"); v != "" {
		t.Fatalf("collection value leaked into the hash: %q", v)
	}
}
