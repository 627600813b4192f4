/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"

	kverrors "github.com/suparena/kvobject/errors"
)

// Reserved hash fields written by Save.
const (
	fieldClass     = "class"
	fieldKey       = "key"
	fieldParent    = "parent"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// ClassConfig declares one mapped class.
type ClassConfig struct {
	// Name is the class name used in keys and in the stored "class" field.
	Name string
	// Plural names the membership set and index prefix. Default: plural of Name.
	Plural string
	// Formats maps field names to their coercion. created_at and updated_at
	// are always dates.
	Formats map[string]Format
	// SortBy declares extra sort indices maintained on every save.
	SortBy []string
	// Collections declares fields that hold child collections, so that Set
	// targets the collection before it has ever been loaded.
	Collections []string
	// TimeIrrelevant disables created_at/updated_at stamping and indices.
	TimeIrrelevant bool
	// SaveHistory appends a snapshot after every save.
	SaveHistory bool
}

// Class holds the per-class configuration and the class-level operations.
type Class struct {
	mapper      *Mapper
	name        string
	plural      string
	idField     string
	formats     map[string]Format
	indices     []string
	collections map[string]bool
	timeless    bool
	history     bool
}

func newClass(m *Mapper, cfg ClassConfig) (*Class, error) {
	if cfg.Name == "" {
		return nil, kverrors.NewValidationError("Name", "class name must not be empty")
	}
	if strings.Contains(cfg.Name, ":") {
		return nil, kverrors.NewValidationError("Name", fmt.Sprintf("class name %q must not contain ':'", cfg.Name))
	}

	c := &Class{
		mapper:      m,
		name:        cfg.Name,
		plural:      cfg.Plural,
		idField:     strings.ToLower(cfg.Name) + "_id",
		formats:     map[string]Format{fieldCreatedAt: FormatDate, fieldUpdatedAt: FormatDate},
		collections: make(map[string]bool, len(cfg.Collections)),
		timeless:    cfg.TimeIrrelevant,
		history:     cfg.SaveHistory,
	}
	if c.plural == "" {
		c.plural = inflection.Plural(cfg.Name)
	}
	for field, f := range cfg.Formats {
		if f.Coerce == nil {
			return nil, kverrors.NewValidationError("Formats", fmt.Sprintf("format for %q has no coercion", field))
		}
		c.formats[field] = f
	}
	for _, name := range cfg.Collections {
		c.collections[name] = true
	}

	seen := make(map[string]bool)
	if !cfg.TimeIrrelevant {
		c.indices = append(c.indices, fieldCreatedAt, fieldUpdatedAt)
		seen[fieldCreatedAt], seen[fieldUpdatedAt] = true, true
	}
	for _, idx := range cfg.SortBy {
		if idx == "" || seen[idx] {
			continue
		}
		seen[idx] = true
		c.indices = append(c.indices, idx)
	}
	return c, nil
}

func (c *Class) Name() string    { return c.name }
func (c *Class) Plural() string  { return c.plural }
func (c *Class) IDField() string { return c.idField }

// Indices returns the active sort index names.
func (c *Class) Indices() []string {
	return append([]string(nil), c.indices...)
}

// CollectionName is the name of the collection instances of this class are
// pushed into: the lower-cased plural class name.
func (c *Class) CollectionName() string {
	return inflection.Plural(strings.ToLower(c.name))
}

// coerce applies the declared format for field. Fields without one pass through.
func (c *Class) coerce(field string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	f, ok := c.formats[field]
	if !ok {
		return v, nil
	}
	out, err := f.Coerce(v)
	if err != nil {
		return nil, kverrors.NewFormatError(field, f.Name, v, err)
	}
	return out, nil
}

// New builds an unsaved entity staged with attrs. The identifier is read from
// the class id field of attrs or generated on first use. When attrs names an
// identifier, the stored collection names of that entity are read on first
// Get, Set or Save.
func (c *Class) New(attrs map[string]any, opts ...EntityOption) *Entity {
	e := newEntity(c, "", opts)
	e.staged = make(map[string]any, len(attrs))
	for k, v := range attrs {
		e.staged[strings.TrimSuffix(k, "=")] = v
	}
	if v, ok := e.staged[c.idField]; ok && v != nil {
		e.id = fmt.Sprint(v)
		e.colsPending = true
	}
	return e
}

// Open loads an existing entity by identifier. The returned entity reports
// through Loaded whether any backing data exists.
func (c *Class) Open(ctx context.Context, id string, opts ...EntityOption) (*Entity, error) {
	return c.open(ctx, id, "", opts)
}

func (c *Class) open(ctx context.Context, id, parentKey string, opts []EntityOption) (*Entity, error) {
	e := newEntity(c, id, opts)
	if parentKey != "" && e.parentKey == "" {
		e.parentKey = parentKey
	}
	if err := e.load(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Find returns the entity with the given identifier, or nil when no hash
// exists for it.
func (c *Class) Find(ctx context.Context, id string, opts ...EntityOption) (*Entity, error) {
	probe := newEntity(c, id, opts)
	ok, err := c.mapper.store.Exists(ctx, probe.HashKey())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return c.Open(ctx, id, opts...)
}

// Create constructs an entity with the given identifier and saves it.
func (c *Class) Create(ctx context.Context, id string, opts ...EntityOption) (*Entity, error) {
	e := c.New(map[string]any{c.idField: id}, opts...)
	if err := e.Save(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// All resolves every member of the class membership set. Members whose entity
// no longer exists are removed from the set.
func (c *Class) All(ctx context.Context) ([]*Entity, error) {
	members, err := c.mapper.store.SMembers(ctx, c.plural)
	if err != nil {
		return nil, err
	}
	sort.Strings(members)

	out := make([]*Entity, 0, len(members))
	for _, member := range members {
		e, err := c.mapper.FindByKey(ctx, member)
		if err != nil {
			return nil, err
		}
		if e == nil {
			if err := c.prune(ctx, member); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Class) prune(ctx context.Context, member string) error {
	c.mapper.logger.Warn().Str("class", c.name).Str("member", member).Msg("removing dangling member")
	return c.mapper.store.SRem(ctx, c.plural, member)
}

// SaveAll re-saves every entity of the class, refreshing indices and formats.
func (c *Class) SaveAll(ctx context.Context) error {
	all, err := c.All(ctx)
	if err != nil {
		return err
	}
	for _, e := range all {
		if err := e.Save(ctx); err != nil {
			return err
		}
	}
	return nil
}
