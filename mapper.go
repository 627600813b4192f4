/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/suparena/kvobject/codec"
	"github.com/suparena/kvobject/datastore"
	kverrors "github.com/suparena/kvobject/errors"
	"github.com/suparena/kvobject/registry"
)

// Mapper binds a set of registered classes to one store.
type Mapper struct {
	store   datastore.Store
	classes *registry.Registry[*Class]
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string
	codec   codec.Codec
	atomic  bool
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Mapper) { m.logger = l }
}

// WithClock overrides the time source used for timestamps and snapshots.
func WithClock(now func() time.Time) Option {
	return func(m *Mapper) { m.now = now }
}

// WithIDGenerator overrides generation of identifiers for new entities.
func WithIDGenerator(gen func() string) Option {
	return func(m *Mapper) { m.newID = gen }
}

// WithCodec sets the codec used for history snapshots and Export.
func WithCodec(c codec.Codec) Option {
	return func(m *Mapper) { m.codec = c }
}

// WithAtomicSave applies the writes of each entity save as one batch when the
// store implements datastore.Batcher.
func WithAtomicSave(enabled bool) Option {
	return func(m *Mapper) { m.atomic = enabled }
}

// New creates a Mapper on store.
func New(store datastore.Store, opts ...Option) *Mapper {
	m := &Mapper{
		store:   store,
		classes: registry.New[*Class]("class"),
		logger:  zerolog.Nop(),
		now:     time.Now,
		newID:   randomID,
		codec:   codec.JSON,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// randomID returns 16 lower-case hex characters.
func randomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// Store returns the underlying store.
func (m *Mapper) Store() datastore.Store {
	return m.store
}

// Close closes the underlying store.
func (m *Mapper) Close() error {
	return m.store.Close()
}

// Register validates cfg and adds a class. Each class name may be registered once.
func (m *Mapper) Register(cfg ClassConfig) (*Class, error) {
	c, err := newClass(m, cfg)
	if err != nil {
		return nil, err
	}
	if err := m.classes.Register(c.Name(), c); err != nil {
		return nil, err
	}
	m.logger.Debug().Str("class", c.Name()).Strs("indices", c.indices).Msg("class registered")
	return c, nil
}

// MustRegister is Register that panics on error.
func (m *Mapper) MustRegister(cfg ClassConfig) *Class {
	c, err := m.Register(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Class returns a registered class by name.
func (m *Mapper) Class(name string) (*Class, bool) {
	return m.classes.Get(name)
}

// Classes returns the names of every registered class.
func (m *Mapper) Classes() []string {
	return m.classes.Names()
}

// FindByKey reconstructs the entity stored at key, which may be a primary or a
// hash key. The concrete class is taken from the stored "class" field. A key
// with no backing data yields nil, nil.
func (m *Mapper) FindByKey(ctx context.Context, key string) (*Entity, error) {
	hkey := toHashKey(key)
	fields, err := m.store.HGetAll(ctx, hkey)
	if err != nil {
		return nil, err
	}
	name := fields[fieldClass]
	if name == "" {
		return nil, nil
	}

	c, ok := m.classes.Get(name)
	if !ok {
		return nil, kverrors.NewUnknownClassError(name)
	}

	id := fields[c.IDField()]
	if id == "" {
		id = SanitizeID(PrimaryFromHash(hkey))
	}
	return c.open(ctx, id, fields[fieldParent], nil)
}

// write runs fn against the store, inside one batch when atomic saves are
// enabled and supported.
func (m *Mapper) write(ctx context.Context, fn func(w datastore.Writer) error) error {
	if m.atomic {
		if b, ok := m.store.(datastore.Batcher); ok {
			return b.Batch(ctx, fn)
		}
	}
	return fn(m.store)
}
