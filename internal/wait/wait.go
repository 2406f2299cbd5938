// Package wait polls a condition until it holds or a deadline passes.
package wait

import (
	"context"
	"log/slog"
	"time"

	"github.com/mj1618/droid-cli/internal/clock"
)

// DefaultInterval is used when Options.Interval is not positive.
const DefaultInterval = 100 * time.Millisecond

// Options controls one Wait call.
type Options struct {
	Timeout  time.Duration
	Interval time.Duration
	// Refresh, when set, runs before every check. A failed refresh is
	// logged and counts as an unsuccessful check.
	Refresh func(ctx context.Context) error
}

// Waiter runs polling loops against a clock.
type Waiter struct {
	clock  clock.Clock
	logger *slog.Logger
}

// New returns a Waiter. A nil clock uses real time and a nil logger
// discards.
func New(clk clock.Clock, logger *slog.Logger) *Waiter {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Waiter{clock: clk, logger: logger}
}

// Wait evaluates pred until it returns true or the deadline, fixed at
// entry as now+Timeout, has passed. It returns true as soon as pred
// succeeds, without sleeping, and false on timeout or when ctx is done.
// Timing out is not an error; callers that need one wrap the result.
func (w *Waiter) Wait(ctx context.Context, pred func() bool, opts Options) bool {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	deadline := w.clock.Now().Add(opts.Timeout)

	checks := 0
	for !w.clock.Now().After(deadline) {
		checks++
		if w.check(ctx, pred, opts.Refresh) {
			return true
		}
		if ctx.Err() != nil {
			w.logger.Debug("wait cancelled", "checks", checks)
			return false
		}
		w.clock.Sleep(interval)
	}
	w.logger.Debug("wait timed out", "timeout", opts.Timeout, "checks", checks)
	return false
}

func (w *Waiter) check(ctx context.Context, pred func() bool, refresh func(context.Context) error) bool {
	if refresh != nil {
		if err := refresh(ctx); err != nil {
			w.logger.Debug("refresh before check failed", "error", err)
			return false
		}
	}
	return pred()
}
