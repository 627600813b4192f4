/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"reflect"
	"testing"
)

func TestSortedRange(t *testing.T) {
	scores := map[string]float64{
		"c": 3,
		"a": 1,
		"b": 2,
		"d": 2,
	}

	tests := []struct {
		name        string
		start, stop int64
		reverse     bool
		expected    []string
	}{
		{"all ascending", 0, -1, false, []string{"a", "b", "d", "c"}},
		{"all descending", 0, -1, true, []string{"c", "d", "b", "a"}},
		{"first two descending", 0, 1, true, []string{"c", "d"}},
		{"stop past end", 2, 10, false, []string{"d", "c"}},
		{"negative start", -2, -1, false, []string{"d", "c"}},
		{"start past stop", 3, 1, false, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SortedRange(scores, tt.start, tt.stop, tt.reverse)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}

	if got := SortedRange(map[string]float64{}, 0, -1, false); len(got) != 0 {
		t.Errorf("expected empty range, got %v", got)
	}
}
