/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// StreamResult represents a single item in a stream with metadata
type StreamResult[T any] struct {
	Item  T          // The resolved item
	Key   string     // Membership key the item was resolved from
	Error error      // Item-specific error, if any
	Meta  StreamMeta // Metadata about this item
}

// StreamMeta contains metadata about a streamed item
type StreamMeta struct {
	Index      int64     // Item index in stream (0-based)
	PageNumber int       // Page number (1-based)
	Timestamp  time.Time // When item was retrieved
}

// StreamOptions configures streaming behavior
type StreamOptions struct {
	BufferSize      int                  // Channel buffer size (default: 100)
	MaxRetries      int                  // Retry attempts for transient errors (default: 3)
	RetryBackoff    time.Duration        // Backoff between retries (default: 1s)
	PageSize        int                  // Members resolved per page (default: 100)
	ProgressHandler func(StreamProgress) // Optional progress callback, called after each page
	ErrorHandler    func(error) bool     // Return true to continue, false to stop
}

// StreamProgress tracks streaming progress
type StreamProgress struct {
	ItemsProcessed int64     // Total items processed
	PagesProcessed int       // Total pages processed
	Pruned         int       // Dangling members removed
	LastKey        string    // Last membership key processed
	Errors         []error   // Accumulated non-fatal errors
	StartTime      time.Time // When streaming started
	CurrentRate    float64   // Items per second
}

// StreamOption is a functional option for configuring streaming
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns default streaming options
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize:   100,
		MaxRetries:   3,
		RetryBackoff: time.Second,
		PageSize:     100,
	}
}

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.BufferSize = size
	}
}

// WithMaxRetries sets the maximum retry attempts
func WithMaxRetries(retries int) StreamOption {
	return func(opts *StreamOptions) {
		opts.MaxRetries = retries
	}
}

// WithRetryBackoff sets the retry backoff duration
func WithRetryBackoff(backoff time.Duration) StreamOption {
	return func(opts *StreamOptions) {
		opts.RetryBackoff = backoff
	}
}

// WithPageSize sets how many members are resolved between progress reports
func WithPageSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.PageSize = size
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(StreamProgress)) StreamOption {
	return func(opts *StreamOptions) {
		opts.ProgressHandler = handler
	}
}

// WithErrorHandler sets an error handler that can decide whether to continue
func WithErrorHandler(handler func(error) bool) StreamOption {
	return func(opts *StreamOptions) {
		opts.ErrorHandler = handler
	}
}
