// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package guard bounds the wall-clock time of a single evaluation.
//
// A Guard admits one evaluation at a time. Callers that evaluate in
// parallel give each worker its own Guard; a Guard is never shared between
// concurrent evaluations.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// DefaultTimeout is the deadline used when a Guard is built with a
// non-positive timeout.
const DefaultTimeout = 5 * time.Second

// ErrBusy is returned when an evaluation is started on a Guard that already
// has one in flight.
var ErrBusy = errors.New("guard: evaluation already in flight")

// ErrTimeout matches every TimeoutError with errors.Is.
var ErrTimeout = errors.New("guard: deadline exceeded")

// TimeoutError reports that the named operation did not finish within its
// deadline.
type TimeoutError struct {
	Op       string
	Deadline time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Op, e.Deadline)
}

// Unwrap lets errors.Is(err, ErrTimeout) match.
func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// Guard runs operations under a per-call deadline.
type Guard struct {
	timeout time.Duration
	busy    atomic.Bool
}

// New returns a Guard with the given per-evaluation deadline.
func New(timeout time.Duration) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Guard{timeout: timeout}
}

// Timeout returns the per-evaluation deadline.
func (g *Guard) Timeout() time.Duration { return g.timeout }

type result[T any] struct {
	val T
	err error
}

// Run evaluates fn under g's deadline. fn receives a context that is
// cancelled when the deadline fires and should poll it between steps. If the
// deadline fires first Run returns a *TimeoutError naming op; the abandoned
// evaluation's result is discarded. The deadline timer is released before
// Run returns, so g is immediately reusable.
//
// A nil Guard runs fn directly with no deadline.
func Run[T any](ctx context.Context, g *Guard, op string, fn func(context.Context) (T, error)) (T, error) {
	if g == nil {
		return fn(ctx)
	}

	var zero T
	if !g.busy.CompareAndSwap(false, true) {
		return zero, ErrBusy
	}
	defer g.busy.Store(false)

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	evalCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(evalCtx)
		done <- result[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		// fn may notice the deadline and return before Run does.
		if r.err != nil && ctx.Err() == nil && errors.Is(evalCtx.Err(), context.DeadlineExceeded) {
			return zero, &TimeoutError{Op: op, Deadline: g.timeout}
		}
		return r.val, r.err
	case <-evalCtx.Done():
		// The caller's own cancellation is not a timeout.
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, &TimeoutError{Op: op, Deadline: g.timeout}
	}
}
