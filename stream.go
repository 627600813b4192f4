/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject

import (
	"context"
	"fmt"
	"sort"
	"time"

	kverrors "github.com/suparena/kvobject/errors"
	"github.com/suparena/kvobject/storagemodels"
)

// Stream enumerates the class membership set on a channel, resolving members
// page by page. Dangling members are pruned as in All. The channel is closed
// when enumeration ends or ctx is cancelled.
func (c *Class) Stream(ctx context.Context, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[*Entity] {
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.PageSize <= 0 {
		options.PageSize = storagemodels.DefaultStreamOptions().PageSize
	}

	resultCh := make(chan storagemodels.StreamResult[*Entity], options.BufferSize)
	go c.streamWorker(ctx, options, resultCh)
	return resultCh
}

func (c *Class) streamWorker(
	ctx context.Context,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[*Entity],
) {
	defer close(resultCh)

	var (
		itemIndex  int64
		pageNumber int
		pruned     int
		errs       []error
		lastKey    string
	)
	startTime := time.Now()

	reportProgress := func() {
		if options.ProgressHandler == nil {
			return
		}
		progress := storagemodels.StreamProgress{
			ItemsProcessed: itemIndex,
			PagesProcessed: pageNumber,
			Pruned:         pruned,
			LastKey:        lastKey,
			Errors:         errs,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
		}
		options.ProgressHandler(progress)
	}

	send := func(r storagemodels.StreamResult[*Entity]) bool {
		select {
		case <-ctx.Done():
			return false
		case resultCh <- r:
			return true
		}
	}

	var members []string
	err := withRetry(ctx, options, func() (err error) {
		members, err = c.mapper.store.SMembers(ctx, c.plural)
		return err
	})
	if err != nil {
		send(storagemodels.StreamResult[*Entity]{
			Error: fmt.Errorf("reading members of %s: %w", c.plural, err),
			Meta:  storagemodels.StreamMeta{Timestamp: time.Now()},
		})
		return
	}
	sort.Strings(members)

	for start := 0; start < len(members); start += options.PageSize {
		end := start + options.PageSize
		if end > len(members) {
			end = len(members)
		}
		pageNumber++

		for _, member := range members[start:end] {
			if ctx.Err() != nil {
				return
			}
			lastKey = member

			var e *Entity
			err := withRetry(ctx, options, func() (err error) {
				e, err = c.mapper.FindByKey(ctx, member)
				return err
			})
			if err == nil && e == nil {
				if err = c.prune(ctx, member); err == nil {
					pruned++
					continue
				}
			}

			result := storagemodels.StreamResult[*Entity]{
				Item:  e,
				Key:   member,
				Error: err,
				Meta: storagemodels.StreamMeta{
					Index:      itemIndex,
					PageNumber: pageNumber,
					Timestamp:  time.Now(),
				},
			}
			itemIndex++
			if !send(result) {
				return
			}

			if err != nil {
				errs = append(errs, err)
				if options.ErrorHandler != nil && !options.ErrorHandler(err) {
					reportProgress()
					return
				}
			}
		}

		reportProgress()
	}
}

// withRetry runs fn, retrying connection errors with a linear backoff.
func withRetry(ctx context.Context, options storagemodels.StreamOptions, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil || !kverrors.IsConnectionError(lastErr) {
			return lastErr
		}
		if attempt < options.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt+1) * options.RetryBackoff):
			}
		}
	}
	return fmt.Errorf("failed after %d retries: %w", options.MaxRetries, lastErr)
}
