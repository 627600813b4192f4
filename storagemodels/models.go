/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// DefaultRangeCount is the number of entries a ranged index query returns when
// no count is given.
const DefaultRangeCount = 5

// RangeQuery selects entries of one sort index.
type RangeQuery struct {
	// Index is the sort index name, e.g. "created_at".
	Index string
	// ParentKey scopes the query to the children of one parent hash key.
	// Empty selects the class-wide index.
	ParentKey string
	// Count is the maximum number of entries returned (default: 5).
	Count int
	// Descending orders by highest score first.
	Descending bool
}

// Limit returns Count, or DefaultRangeCount when Count is not positive.
func (q RangeQuery) Limit() int {
	if q.Count <= 0 {
		return DefaultRangeCount
	}
	return q.Count
}
