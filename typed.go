/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject

import "context"

// Typed exposes the operations of one class in terms of a domain type T that
// wraps *Entity.
type Typed[T any] struct {
	class *Class
	wrap  func(*Entity) T
}

// Bind creates a typed view over class c.
func Bind[T any](c *Class, wrap func(*Entity) T) *Typed[T] {
	return &Typed[T]{class: c, wrap: wrap}
}

// Class returns the bound class.
func (t *Typed[T]) Class() *Class {
	return t.class
}

// New builds an unsaved T staged with attrs.
func (t *Typed[T]) New(attrs map[string]any, opts ...EntityOption) T {
	return t.wrap(t.class.New(attrs, opts...))
}

// Find returns the T with the given identifier. ok is false when it does not exist.
func (t *Typed[T]) Find(ctx context.Context, id string, opts ...EntityOption) (v T, ok bool, err error) {
	e, err := t.class.Find(ctx, id, opts...)
	if err != nil || e == nil {
		return v, false, err
	}
	return t.wrap(e), true, nil
}

// All returns every persisted T.
func (t *Typed[T]) All(ctx context.Context) ([]T, error) {
	all, err := t.class.All(ctx)
	if err != nil {
		return nil, err
	}
	return t.wrapAll(all), nil
}

// Recent returns the n most recently created T, newest first.
func (t *Typed[T]) Recent(ctx context.Context, n int) ([]T, error) {
	recent, err := t.class.RecentlyCreated(ctx, n)
	if err != nil {
		return nil, err
	}
	return t.wrapAll(recent), nil
}

func (t *Typed[T]) wrapAll(entities []*Entity) []T {
	out := make([]T, 0, len(entities))
	for _, e := range entities {
		out = append(out, t.wrap(e))
	}
	return out
}
