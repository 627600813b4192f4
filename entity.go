/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/suparena/kvobject/datastore"
)

// Entity is one mapped object. Before its first Save it is staged: attribute
// reads and writes go to an in-memory buffer. Afterwards they go directly to
// the store. An Entity is not safe for concurrent use.
type Entity struct {
	class     *Class
	id        string
	parentKey string
	parent    *Entity

	staged      map[string]any
	collections map[string]*Collection
	loaded      bool
	// colsPending marks collection names not yet read for a staged entity
	// that names an identifier.
	colsPending bool
}

// EntityOption configures an entity at construction.
type EntityOption func(*Entity)

// WithParent nests the entity under p.
func WithParent(p *Entity) EntityOption {
	return func(e *Entity) {
		if p != nil {
			e.parent = p
			e.parentKey = p.HashKey()
		}
	}
}

// WithParentKey nests the entity under an already resolved parent hash key.
func WithParentKey(key string) EntityOption {
	return func(e *Entity) {
		e.parent = nil
		e.parentKey = key
	}
}

func newEntity(c *Class, id string, opts []EntityOption) *Entity {
	e := &Entity{
		class:       c,
		id:          id,
		collections: make(map[string]*Collection),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Entity) store() datastore.Store {
	return e.class.mapper.store
}

// Class returns the entity's class.
func (e *Entity) Class() *Class { return e.class }

// ID returns the identifier, generating one on first call for a new entity.
func (e *Entity) ID() string {
	if e.id == "" {
		e.id = e.class.mapper.newID()
	}
	return e.id
}

func (e *Entity) Key() string            { return PrimaryKey(e.class.name, e.ID(), e.parentKey) }
func (e *Entity) HashKey() string        { return HashKey(e.Key()) }
func (e *Entity) HistoryKey() string     { return HistoryKey(e.Key()) }
func (e *Entity) CollectionsKey() string { return CollectionsKey(e.HashKey()) }
func (e *Entity) ParentKey() string      { return e.parentKey }

// Staged reports whether the entity has not been saved yet.
func (e *Entity) Staged() bool { return e.staged != nil }

// Loaded reports whether Open found backing data for the entity.
func (e *Entity) Loaded() bool { return e.loaded }

func (e *Entity) load(ctx context.Context) error {
	names, err := e.store().SMembers(ctx, e.CollectionsKey())
	if err != nil {
		return err
	}
	for _, name := range names {
		e.collections[name] = newCollection(name, e)
	}
	e.loaded, err = e.store().Exists(ctx, e.HashKey())
	return err
}

// Parent resolves the parent entity, or nil when the entity is not nested.
func (e *Entity) Parent(ctx context.Context) (*Entity, error) {
	if e.parent != nil || e.parentKey == "" {
		return e.parent, nil
	}
	p, err := e.class.mapper.FindByKey(ctx, e.parentKey)
	if err != nil {
		return nil, err
	}
	e.parent = p
	return p, nil
}

// SetParent nests the entity under p. The entity's keys change; data already
// saved under the old keys stays where it is.
func (e *Entity) SetParent(ctx context.Context, p *Entity) error {
	e.parent = p
	e.parentKey = p.HashKey()
	if e.staged != nil {
		e.staged[fieldParent] = e.parentKey
		return nil
	}
	return e.store().HSet(ctx, e.HashKey(), fieldParent, e.parentKey)
}

// syncCollections reads the stored collection names of an entity built by
// New with an explicit identifier.
func (e *Entity) syncCollections(ctx context.Context) error {
	if !e.colsPending {
		return nil
	}
	names, err := e.store().SMembers(ctx, e.CollectionsKey())
	if err != nil {
		return err
	}
	for _, name := range names {
		e.Collection(name)
	}
	e.colsPending = false
	return nil
}

func (e *Entity) isCollection(field string) bool {
	_, ok := e.collections[field]
	return ok || e.class.collections[field]
}

// Get returns a field value passed through its declared format. Collection
// fields return the *Collection. Absent fields return nil.
func (e *Entity) Get(ctx context.Context, field string) (any, error) {
	if err := e.syncCollections(ctx); err != nil {
		return nil, err
	}
	if e.isCollection(field) {
		return e.Collection(field), nil
	}

	var raw any
	if e.staged != nil {
		raw = e.staged[field]
	} else {
		v, found, err := e.store().HGet(ctx, e.HashKey(), field)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		raw = v
	}
	return e.class.coerce(field, raw)
}

// GetString returns the stored string form of a field without coercion.
func (e *Entity) GetString(ctx context.Context, field string) (string, error) {
	if e.staged != nil {
		return encodeValue(field, e.staged[field])
	}
	v, _, err := e.store().HGet(ctx, e.HashKey(), field)
	return v, err
}

// Set writes a field. A trailing '=' on the field name is ignored.
func (e *Entity) Set(ctx context.Context, field string, value any) (any, error) {
	field = strings.TrimSuffix(field, "=")
	if err := e.syncCollections(ctx); err != nil {
		return nil, err
	}
	if e.staged != nil {
		e.staged[field] = value
		return value, nil
	}
	if e.isCollection(field) {
		return value, e.Collection(field).Replace(ctx, value)
	}

	s, err := encodeValue(field, value)
	if err != nil {
		return nil, err
	}
	if err := e.store().HSet(ctx, e.HashKey(), field, s); err != nil {
		return nil, err
	}
	return value, nil
}

// Attributes returns the stored attribute hash, or the encoded staged buffer
// for an unsaved entity.
func (e *Entity) Attributes(ctx context.Context) (map[string]string, error) {
	if e.staged == nil {
		return e.store().HGetAll(ctx, e.HashKey())
	}
	out := make(map[string]string, len(e.staged))
	for k, v := range e.staged {
		s, err := encodeValue(k, v)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}

// Export encodes the attribute hash with the mapper's codec.
func (e *Entity) Export(ctx context.Context) (string, error) {
	attrs, err := e.Attributes(ctx)
	if err != nil {
		return "", err
	}
	return e.class.mapper.codec.Encode(attrs)
}

// Save persists the entity: identity fields, staged attributes, timestamps,
// class membership and sort indices, then every loaded collection.
func (e *Entity) Save(ctx context.Context) error {
	return e.save(ctx, make(map[string]bool))
}

func (e *Entity) save(ctx context.Context, seen map[string]bool) error {
	hkey := e.HashKey()
	if seen[hkey] {
		return nil
	}
	seen[hkey] = true

	m := e.class.mapper
	now := m.now()
	if err := e.syncCollections(ctx); err != nil {
		return err
	}

	stagedCols := make(map[string]any)
	for k, v := range e.staged {
		if e.isCollection(k) {
			stagedCols[k] = v
		}
	}

	fields, err := e.pendingFields(ctx, now)
	if err != nil {
		return err
	}
	scores, err := e.indexScores(ctx, fields)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	err = m.write(ctx, func(w datastore.Writer) error {
		for _, k := range names {
			if err := w.HSet(ctx, hkey, k, fields[k]); err != nil {
				return err
			}
		}
		if err := w.SAdd(ctx, e.class.plural, e.Key()); err != nil {
			return err
		}
		return updateIndices(ctx, w, e, scores)
	})
	if err != nil {
		return err
	}
	e.staged = nil
	for name, v := range stagedCols {
		if err := e.Collection(name).Replace(ctx, v); err != nil {
			return err
		}
	}

	m.logger.Debug().Str("class", e.class.name).Str("key", hkey).Int("fields", len(fields)).Msg("entity saved")

	colNames := make([]string, 0, len(e.collections))
	for name := range e.collections {
		colNames = append(colNames, name)
	}
	sort.Strings(colNames)
	for _, name := range colNames {
		if err := e.collections[name].save(ctx, seen); err != nil {
			return err
		}
	}

	if e.class.history {
		return e.Snapshot(ctx)
	}
	return nil
}

// pendingFields collects every hash field a save writes, encoded.
func (e *Entity) pendingFields(ctx context.Context, now time.Time) (map[string]string, error) {
	fields := make(map[string]string, len(e.staged)+6)
	for k, v := range e.staged {
		if e.isCollection(k) {
			continue
		}
		s, err := encodeValue(k, v)
		if err != nil {
			return nil, err
		}
		fields[k] = s
	}

	fields[fieldClass] = e.class.name
	fields[e.class.idField] = e.ID()
	fields[fieldKey] = e.Key()
	if e.parentKey != "" {
		fields[fieldParent] = e.parentKey
	}

	if !e.class.timeless {
		stamp, _ := encodeValue(fieldCreatedAt, now)
		if _, ok := fields[fieldCreatedAt]; !ok {
			_, found, err := e.store().HGet(ctx, e.HashKey(), fieldCreatedAt)
			if err != nil {
				return nil, err
			}
			if !found {
				fields[fieldCreatedAt] = stamp
			}
		}
		fields[fieldUpdatedAt] = stamp
	}
	return fields, nil
}

// Push nests child under e, saves it, and adds it to the collection named
// after the child's class.
func (e *Entity) Push(ctx context.Context, child *Entity) error {
	if err := child.SetParent(ctx, e); err != nil {
		return err
	}
	if err := child.Save(ctx); err != nil {
		return err
	}
	return e.Collection(child.class.CollectionName()).Append(ctx, child.HashKey())
}

// Reference adds other to the collection named after its class without
// re-parenting or saving it.
func (e *Entity) Reference(ctx context.Context, other *Entity) error {
	return e.Collection(other.class.CollectionName()).Append(ctx, other.HashKey())
}

// Delete removes the entity's keys and its class membership. Collections,
// history and index entries are left in place.
func (e *Entity) Delete(ctx context.Context) error {
	m := e.class.mapper
	err := m.write(ctx, func(w datastore.Writer) error {
		if err := w.Del(ctx, e.Key(), e.HashKey()); err != nil {
			return err
		}
		return w.SRem(ctx, e.class.plural, e.Key())
	})
	if err != nil {
		return err
	}
	m.logger.Debug().Str("class", e.class.name).Str("key", e.Key()).Msg("entity deleted")
	return nil
}

// Collection returns the named collection, creating it on first use.
func (e *Entity) Collection(name string) *Collection {
	c, ok := e.collections[name]
	if !ok {
		c = newCollection(name, e)
		e.collections[name] = c
	}
	return c
}
