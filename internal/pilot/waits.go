package pilot

import (
	"context"
	"fmt"
	"time"

	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/wait"
)

func (p *Pilot) waitOptions(timeout time.Duration, refresh bool) wait.Options {
	if timeout <= 0 {
		timeout = p.opts.WaitTimeout
	}
	opts := wait.Options{Timeout: timeout, Interval: p.opts.WaitInterval}
	if refresh {
		opts.Refresh = p.Refresh
	}
	return opts
}

// WaitForActivity polls the focused window until its activity is name.
// A zero timeout uses the Pilot default.
func (p *Pilot) WaitForActivity(ctx context.Context, name string, timeout time.Duration) error {
	var last string
	ok := p.waiter.Wait(ctx, func() bool {
		act, err := p.views.FocusedActivity(ctx)
		if err != nil {
			p.logger.Debug("reading focused activity", "error", err)
			return false
		}
		last = act
		return act == name
	}, p.waitOptions(timeout, false))
	if !ok {
		return fmt.Errorf("%w: activity %q not focused (last: %q)", ErrTimeout, name, last)
	}
	p.logger.Debug("activity focused", "activity", name)
	return nil
}

// WaitForText refreshes the tree until a shown view contains text.
func (p *Pilot) WaitForText(ctx context.Context, text string, timeout time.Duration) error {
	ok := p.waiter.Wait(ctx, func() bool {
		return p.ExistsByText(text, true)
	}, p.waitOptions(timeout, true))
	if !ok {
		return fmt.Errorf("%w: text %q", ErrTimeout, text)
	}
	return nil
}

// WaitFor evaluates pred against the current tree until it holds,
// refreshing the tree before each check when refresh is set.
func (p *Pilot) WaitFor(ctx context.Context, pred func(*model.Tree) bool, refresh bool, timeout time.Duration) error {
	ok := p.waiter.Wait(ctx, func() bool {
		return pred(p.Tree())
	}, p.waitOptions(timeout, refresh))
	if !ok {
		return fmt.Errorf("%w: condition not met", ErrTimeout)
	}
	return nil
}

// WaitForDialogToClose waits until the window count drops below the
// highest count seen since the call started. A dialog that opens after
// the call is therefore also caught closing.
func (p *Pilot) WaitForDialogToClose(ctx context.Context, timeout time.Duration) error {
	windows, err := p.views.List(ctx)
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}
	highest := len(windows)
	ok := p.waiter.Wait(ctx, func() bool {
		windows, err := p.views.List(ctx)
		if err != nil {
			p.logger.Debug("listing windows", "error", err)
			return false
		}
		n := len(windows)
		if n > highest {
			highest = n
		}
		return n < highest
	}, p.waitOptions(timeout, false))
	if !ok {
		return fmt.Errorf("%w: no window closed", ErrTimeout)
	}
	p.logger.Debug("dialog closed", "windows", highest-1)
	return nil
}
