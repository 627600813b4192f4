/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/suparena/kvobject"
)

type order struct {
	*kvobject.Entity
}

func (o order) Total(ctx context.Context) (int64, error) {
	v, err := o.Get(ctx, "total")
	if err != nil || v == nil {
		return 0, err
	}
	return v.(int64), nil
}

func TestTyped(t *testing.T) {
	f := newFixture(t)
	orders := kvobject.Bind(f.orders, func(e *kvobject.Entity) order { return order{e} })

	if orders.Class() != f.orders {
		t.Fatal("Class() returned a different class")
	}

	for i, id := range []string{"o1", "o2"} {
		o := orders.New(map[string]any{"order_id": id, "total": (i + 1) * 10})
		if err := o.Save(f.ctx); err != nil {
			t.Fatal(err)
		}
		f.clock.Advance(time.Second)
	}

	o, ok, err := orders.Find(f.ctx, "o2")
	if err != nil || !ok {
		t.Fatalf("Find = %v, %v", ok, err)
	}
	if total, err := o.Total(f.ctx); err != nil || total != 20 {
		t.Fatalf("Total() = %d, %v", total, err)
	}

	if _, ok, err := orders.Find(f.ctx, "missing"); ok || err != nil {
		t.Fatalf("Find(missing) = %v, %v", ok, err)
	}

	all, err := orders.All(f.ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("All = %d, %v", len(all), err)
	}

	recent, err := orders.Recent(f.ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{recent[0].ID(), recent[1].ID()}
	if !reflect.DeepEqual(got, []string{"o2", "o1"}) {
		t.Fatalf("Recent = %v", got)
	}
}
