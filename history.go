/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject

import (
	"context"
	"fmt"
	"time"
)

// Snapshot is one entry of an entity's history log.
type Snapshot struct {
	Timestamp  time.Time         `json:"timestamp" msgpack:"timestamp"`
	Attributes map[string]string `json:"snapshot" msgpack:"snapshot"`
}

// Snapshot appends the current attributes to the entity's history log,
// scored by Unix nanoseconds.
func (e *Entity) Snapshot(ctx context.Context) error {
	m := e.class.mapper
	attrs, err := e.Attributes(ctx)
	if err != nil {
		return err
	}

	now := m.now()
	data, err := m.codec.Encode(Snapshot{Timestamp: now, Attributes: attrs})
	if err != nil {
		return err
	}
	if err := m.store.ZAdd(ctx, e.HistoryKey(), float64(now.UnixNano()), data); err != nil {
		return err
	}
	m.logger.Debug().Str("key", e.HistoryKey()).Msg("snapshot stored")
	return nil
}

// History returns every snapshot, oldest first.
func (e *Entity) History(ctx context.Context) ([]Snapshot, error) {
	m := e.class.mapper
	entries, err := m.store.ZRange(ctx, e.HistoryKey(), 0, -1, false)
	if err != nil {
		return nil, err
	}

	out := make([]Snapshot, 0, len(entries))
	for i, raw := range entries {
		var s Snapshot
		if err := m.codec.Decode(raw, &s); err != nil {
			return nil, fmt.Errorf("history entry %d of %s: %w", i, e.HistoryKey(), err)
		}
		out = append(out, s)
	}
	return out, nil
}
