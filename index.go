/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject

import (
	"context"

	"github.com/suparena/kvobject/datastore"
	"github.com/suparena/kvobject/storagemodels"
)

// indexScores computes the score of every active sort index from the fields
// about to be written, falling back to the stored hash. Indices whose field
// has no value are skipped.
func (e *Entity) indexScores(ctx context.Context, pending map[string]string) (map[string]float64, error) {
	scores := make(map[string]float64, len(e.class.indices))
	for _, idx := range e.class.indices {
		raw, ok := pending[idx]
		if !ok {
			v, found, err := e.store().HGet(ctx, e.HashKey(), idx)
			if err != nil {
				return nil, err
			}
			if !found {
				continue
			}
			raw = v
		}
		v, err := e.class.coerce(idx, raw)
		if err != nil {
			return nil, err
		}
		s, err := score(idx, v)
		if err != nil {
			return nil, err
		}
		scores[idx] = s
	}
	return scores, nil
}

// updateIndices writes (score, hash key) into each index key of e.
func updateIndices(ctx context.Context, w datastore.Writer, e *Entity, scores map[string]float64) error {
	for _, idx := range e.class.indices {
		s, ok := scores[idx]
		if !ok {
			continue
		}
		if err := w.ZAdd(ctx, IndexKey(e.parentKey, e.class.plural, idx), s, e.HashKey()); err != nil {
			return err
		}
	}
	return nil
}

// Query returns up to q.Count entities of one sort index ordered by score.
// Members whose entity no longer exists are removed from the index.
func (c *Class) Query(ctx context.Context, q storagemodels.RangeQuery) ([]*Entity, error) {
	key := IndexKey(q.ParentKey, c.plural, q.Index)
	members, err := c.mapper.store.ZRange(ctx, key, 0, int64(q.Limit()-1), q.Descending)
	if err != nil {
		return nil, err
	}

	out := make([]*Entity, 0, len(members))
	for _, member := range members {
		e, err := c.mapper.FindByKey(ctx, member)
		if err != nil {
			return nil, err
		}
		if e == nil {
			c.mapper.logger.Warn().Str("index", key).Str("member", member).Msg("removing dangling index entry")
			if err := c.mapper.store.ZRem(ctx, key, member); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Indexed queries the class-wide index.
func (c *Class) Indexed(ctx context.Context, index string, count int, descending bool) ([]*Entity, error) {
	return c.Query(ctx, storagemodels.RangeQuery{Index: index, Count: count, Descending: descending})
}

// IndexedWithin queries the index of the children of parent.
func (c *Class) IndexedWithin(ctx context.Context, parent *Entity, index string, count int, descending bool) ([]*Entity, error) {
	return c.Query(ctx, storagemodels.RangeQuery{
		Index:      index,
		ParentKey:  parent.HashKey(),
		Count:      count,
		Descending: descending,
	})
}

// RecentlyCreated returns the n newest entities by creation time (default 5).
func (c *Class) RecentlyCreated(ctx context.Context, n int) ([]*Entity, error) {
	return c.Indexed(ctx, fieldCreatedAt, n, true)
}

// RecentlyUpdated returns the n most recently updated entities (default 5).
func (c *Class) RecentlyUpdated(ctx context.Context, n int) ([]*Entity, error) {
	return c.Indexed(ctx, fieldUpdatedAt, n, true)
}
