/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"
	"sync"

	kverrors "github.com/suparena/kvobject/errors"
)

// Registry is a thread-safe, closed name → value table.
type Registry[V any] struct {
	kind   string
	mu     sync.RWMutex
	values map[string]V
}

// New creates an empty registry. kind names the registered values in errors.
func New[V any](kind string) *Registry[V] {
	return &Registry[V]{
		kind:   kind,
		values: make(map[string]V),
	}
}

// Register adds v under name. Registering a name twice is an error.
func (r *Registry[V]) Register(name string, v V) error {
	if name == "" {
		return kverrors.NewValidationError("name", fmt.Sprintf("%s name must not be empty", r.kind))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.values[name]; exists {
		return kverrors.NewAlreadyExistsError(r.kind, name)
	}
	r.values[name] = v
	return nil
}

// MustRegister is Register that panics on error, for use during initialization.
func (r *Registry[V]) MustRegister(name string, v V) {
	if err := r.Register(name, v); err != nil {
		panic(fmt.Sprintf("%s registry: %v", r.kind, err))
	}
}

// Get returns the value registered under name.
func (r *Registry[V]) Get(name string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[name]
	return v, ok
}

// Names returns every registered name in sorted order.
func (r *Registry[V]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.values))
	for k := range r.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
