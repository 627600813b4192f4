/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/suparena/kvobject"
	"github.com/suparena/kvobject/datastore/memory"
	kverrors "github.com/suparena/kvobject/errors"
)

func TestRegister(t *testing.T) {
	m := kvobject.New(memory.New())

	tests := []struct {
		name    string
		cfg     kvobject.ClassConfig
		checkFn func(error) bool
	}{
		{"EmptyName", kvobject.ClassConfig{}, kverrors.IsValidationError},
		{"ColonInName", kvobject.ClassConfig{Name: "Bad:Name"}, kverrors.IsValidationError},
		{"FormatWithoutCoerce", kvobject.ClassConfig{Name: "Thing", Formats: map[string]kvobject.Format{"x": {Name: "x"}}}, kverrors.IsValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Register(tt.cfg); !tt.checkFn(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	t.Run("Duplicate", func(t *testing.T) {
		m.MustRegister(kvobject.ClassConfig{Name: "Order"})
		if _, err := m.Register(kvobject.ClassConfig{Name: "Order"}); !kverrors.IsAlreadyExists(err) {
			t.Fatalf("expected AlreadyExists, got %v", err)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		c := m.MustRegister(kvobject.ClassConfig{Name: "Category", SortBy: []string{"rank", "created_at", "rank"}})
		if c.Plural() != "Categories" {
			t.Fatalf("Plural() = %q", c.Plural())
		}
		if c.IDField() != "category_id" {
			t.Fatalf("IDField() = %q", c.IDField())
		}
		if c.CollectionName() != "categories" {
			t.Fatalf("CollectionName() = %q", c.CollectionName())
		}
		if got := c.Indices(); !reflect.DeepEqual(got, []string{"created_at", "updated_at", "rank"}) {
			t.Fatalf("Indices() = %v", got)
		}
	})

	t.Run("ExplicitPlural", func(t *testing.T) {
		c := m.MustRegister(kvobject.ClassConfig{Name: "Person", Plural: "Persons"})
		if c.Plural() != "Persons" {
			t.Fatalf("Plural() = %q", c.Plural())
		}
	})

	if got := m.Classes(); !reflect.DeepEqual(got, []string{"Category", "Order", "Person"}) {
		t.Fatalf("Classes() = %v", got)
	}
	if _, ok := m.Class("Order"); !ok {
		t.Fatal("Class(Order) not found")
	}
}

func TestFindByKey(t *testing.T) {
	f := newFixture(t)
	o := f.save(t, f.orders.New(map[string]any{"order_id": "o1"}))

	for _, key := range []string{o.Key(), o.HashKey()} {
		e, err := f.mapper.FindByKey(f.ctx, key)
		if err != nil {
			t.Fatalf("FindByKey(%q) failed: %v", key, err)
		}
		if e == nil || e.Class() != f.orders || e.ID() != "o1" {
			t.Fatalf("FindByKey(%q) = %v", key, e)
		}
	}

	e, err := f.mapper.FindByKey(f.ctx, "Order:ghost_h")
	if err != nil || e != nil {
		t.Fatalf("FindByKey on missing key = %v, %v", e, err)
	}

	if err := f.store.HSet(f.ctx, "Invoice:x_h", "class", "Invoice"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.mapper.FindByKey(f.ctx, "Invoice:x_h"); !kverrors.IsUnknownClass(err) {
		t.Fatalf("expected unknown class error, got %v", err)
	}
}

func TestAllPrunesDanglingMembers(t *testing.T) {
	f := newFixture(t)
	f.save(t, f.orders.New(map[string]any{"order_id": "o1"}))
	if err := f.store.SAdd(f.ctx, "Orders", "Order:gone"); err != nil {
		t.Fatal(err)
	}

	all, err := f.orders.All(f.ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if !reflect.DeepEqual(ids(all), []string{"o1"}) {
		t.Fatalf("All() = %v", ids(all))
	}
	if ok, _ := f.store.SIsMember(f.ctx, "Orders", "Order:gone"); ok {
		t.Fatal("dangling member was not pruned")
	}
}

func TestAllIncludesNestedEntities(t *testing.T) {
	f := newFixture(t)
	c := f.save(t, f.customers.New(map[string]any{"customer_id": "c1"}))
	o := f.save(t, f.orders.New(map[string]any{"order_id": "o1"}, kvobject.WithParent(c)))

	all, err := f.orders.All(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Key() != o.Key() || all[0].ParentKey() != c.HashKey() {
		t.Fatalf("All() = %v", all)
	}
}

func TestCreateAndSaveAll(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"o1", "o2"} {
		if _, err := f.orders.Create(f.ctx, id); err != nil {
			t.Fatalf("Create(%s) failed: %v", id, err)
		}
	}

	f.clock.Advance(24 * time.Hour)
	if err := f.orders.SaveAll(f.ctx); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	all, err := f.orders.All(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("All() = %v", ids(all))
	}
	for _, e := range all {
		if got := f.get(t, e, "updated_at").(time.Time); !got.Equal(f.clock.Now()) {
			t.Fatalf("%s updated_at = %v", e.ID(), got)
		}
	}
}

func TestFindWithParent(t *testing.T) {
	f := newFixture(t)
	c := f.save(t, f.customers.New(map[string]any{"customer_id": "c1"}))
	f.save(t, f.orders.New(map[string]any{"order_id": "o1"}, kvobject.WithParent(c)))

	if e, _ := f.orders.Find(f.ctx, "o1"); e != nil {
		t.Fatal("nested entity must not be found without its parent")
	}
	e, err := f.orders.Find(f.ctx, "o1", kvobject.WithParentKey(c.HashKey()))
	if err != nil || e == nil {
		t.Fatalf("Find with parent = %v, %v", e, err)
	}
	if e.Key() != "Customer:c1_h:Order:o1" {
		t.Fatalf("Key() = %q", e.Key())
	}
}
