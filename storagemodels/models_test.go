/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"testing"
	"time"
)

func TestRangeQueryLimit(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, DefaultRangeCount},
		{-3, DefaultRangeCount},
		{2, 2},
	}
	for _, tt := range tests {
		if got := (RangeQuery{Count: tt.count}).Limit(); got != tt.want {
			t.Errorf("Limit() with Count=%d = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestStreamOptions(t *testing.T) {
	opts := DefaultStreamOptions()
	for _, opt := range []StreamOption{
		WithBufferSize(10),
		WithMaxRetries(1),
		WithRetryBackoff(time.Millisecond),
		WithPageSize(2),
		WithErrorHandler(func(error) bool { return true }),
		WithProgressHandler(func(StreamProgress) {}),
	} {
		opt(&opts)
	}

	if opts.BufferSize != 10 || opts.MaxRetries != 1 || opts.RetryBackoff != time.Millisecond || opts.PageSize != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.ErrorHandler == nil || opts.ProgressHandler == nil {
		t.Fatal("expected handlers to be set")
	}
}
