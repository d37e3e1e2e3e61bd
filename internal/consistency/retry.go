// Package consistency wraps index-backed lookups in a bounded retry loop.
//
// Secondary-index queries (list by owner, by profile, by campaign) can trail
// the primary write by a short interval. Callers on a
// read-immediately-after-write path wrap the lookup in Await instead of
// duplicating ad hoc polling; steady-state reads should call the store
// directly.
package consistency

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrExhausted is returned when every attempt completed without the lookup
// satisfying the predicate.
var ErrExhausted = errors.New("consistency: attempts exhausted without a match")

// Options bound the retry loop. Zero values fall back to defaults.
type Options struct {
	MaxAttempts int           // total attempts, default 5
	BaseDelay   time.Duration // delay before the second attempt, default 100ms
	MaxDelay    time.Duration // backoff cap, default 2s
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 2 * time.Second
	}
	return o
}

// Await runs lookup until found returns true, an error occurs, the attempt
// budget is spent, or ctx is done. The first attempt runs immediately;
// subsequent attempts wait with exponential backoff capped at MaxDelay.
func Await[T any](ctx context.Context, opts Options, lookup func(context.Context) (T, error), found func(T) bool) (T, error) {
	opts = opts.withDefaults()
	var zero T

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(backoff(opts, attempt))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			}
		}

		v, err := lookup(ctx)
		if err != nil {
			return zero, err
		}
		if found(v) {
			return v, nil
		}
	}

	return zero, ErrExhausted
}

// backoff returns the wait before the given attempt (attempt ≥ 2):
// BaseDelay * 2^(attempt-2), capped at MaxDelay.
func backoff(opts Options, attempt int) time.Duration {
	d := float64(opts.BaseDelay) * math.Pow(2, float64(attempt-2))
	if d > float64(opts.MaxDelay) {
		d = float64(opts.MaxDelay)
	}
	return time.Duration(d)
}
