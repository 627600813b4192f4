/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"sort"
)

// SortedRange applies ZRange semantics to an in-memory member→score map.
// Backends without a native sorted set use it after loading the whole set.
func SortedRange(scores map[string]float64, start, stop int64, reverse bool) []string {
	members := make([]string, 0, len(scores))
	for m := range scores {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		si, sj := scores[members[i]], scores[members[j]]
		if si != sj {
			if reverse {
				return si > sj
			}
			return si < sj
		}
		if reverse {
			return members[i] > members[j]
		}
		return members[i] < members[j]
	})

	n := int64(len(members))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return []string{}
	}
	return members[start : stop+1]
}
