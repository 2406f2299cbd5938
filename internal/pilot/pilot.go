// Package pilot drives an Android device through its view server and
// monkey sessions. It keeps the most recent UI tree, resolves views to
// screen coordinates for input, and waits for UI conditions.
//
// A Pilot is not safe for concurrent use; callers that share one must
// serialize access.
package pilot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mj1618/droid-cli/internal/adb"
	"github.com/mj1618/droid-cli/internal/clock"
	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/viewdump"
	"github.com/mj1618/droid-cli/internal/wait"
)

// Inspector reads UI state from the device.
type Inspector interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	DumpAll(ctx context.Context) (string, error)
	Dump(ctx context.Context, hash string) (string, error)
	List(ctx context.Context) ([]model.Window, error)
	FocusedActivity(ctx context.Context) (string, error)
}

// Inputter injects synthetic input and reads device variables.
type Inputter interface {
	Open(ctx context.Context) error
	Close() error
	Done() error
	Tap(ctx context.Context, x, y int) error
	Press(ctx context.Context, key string) error
	Drag(ctx context.Context, from, to device.Point, steps int, duration time.Duration) error
	Swipe(ctx context.Context, d device.Direction) error
	Type(ctx context.Context, text string) error
	Wake(ctx context.Context) error
	GetVar(ctx context.Context, name string) (string, error)
	DisplaySize(ctx context.Context) (width, height int, err error)
	APILevel(ctx context.Context) (int, error)
}

// Device runs operations that go through adb rather than a session.
type Device interface {
	Serial() string
	StartActivity(ctx context.Context, pkg, activity string) error
	Install(ctx context.Context, apk string) error
	Push(ctx context.Context, src, dst string) error
	Screencap(ctx context.Context) ([]byte, error)
	Logcat(ctx context.Context) (string, error)
}

var (
	_ Inspector = (*device.ViewServer)(nil)
	_ Inputter  = (*device.Monkey)(nil)
	_ Device    = (*adb.Client)(nil)
)

var (
	// ErrViewNotFound is returned when no shown view matches a query.
	ErrViewNotFound = errors.New("view not found")
	// ErrTimeout is returned by the Wait helpers when the condition did
	// not hold before the deadline.
	ErrTimeout = errors.New("timed out")
	// ErrNoDevice is returned by adb operations on a Pilot built without
	// a Device.
	ErrNoDevice = errors.New("no adb device configured")
)

// Options holds per-Pilot timing.
type Options struct {
	WaitTimeout     time.Duration
	WaitInterval    time.Duration
	CloseRetryDelay time.Duration
}

// DefaultOptions returns the standard timing.
func DefaultOptions() Options {
	return Options{
		WaitTimeout:     120 * time.Second,
		WaitInterval:    500 * time.Millisecond,
		CloseRetryDelay: time.Second,
	}
}

// Pilot combines the two device sessions.
type Pilot struct {
	views  Inspector
	input  Inputter
	dev    Device
	opts   Options
	clock  clock.Clock
	waiter *wait.Waiter
	logger *slog.Logger

	tree          *model.Tree
	apiLevel      int
	width, height int
}

// New returns a Pilot over the given sessions. dev may be nil when adb
// operations are not needed.
func New(views Inspector, input Inputter, dev Device, opts Options, clk clock.Clock, logger *slog.Logger) *Pilot {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pilot{
		views:  views,
		input:  input,
		dev:    dev,
		opts:   opts,
		clock:  clk,
		waiter: wait.New(clk, logger),
		logger: logger,
	}
}

// Open starts the monkey session, then the view server, and reads the
// device's API level, display size and focused activity.
func (p *Pilot) Open(ctx context.Context) error {
	if err := p.input.Open(ctx); err != nil {
		return fmt.Errorf("open monkey: %w", err)
	}
	if err := p.views.Open(ctx); err != nil {
		_ = p.input.Close()
		return fmt.Errorf("open view server: %w", err)
	}

	level, err := p.input.APILevel(ctx)
	if err != nil {
		_ = p.Close(ctx)
		return fmt.Errorf("read api level: %w", err)
	}
	p.apiLevel = level
	p.logger.Info("device api level", "level", level)

	w, h, err := p.input.DisplaySize(ctx)
	if err != nil {
		_ = p.Close(ctx)
		return fmt.Errorf("read display size: %w", err)
	}
	p.width, p.height = w, h
	p.logger.Info("display size", "width", w, "height", h)

	act, err := p.views.FocusedActivity(ctx)
	if err != nil {
		_ = p.Close(ctx)
		return fmt.Errorf("read focused activity: %w", err)
	}
	p.logger.Info("focused activity", "activity", act)
	return nil
}

// Close shuts down the monkey session and stops the view server. A failed
// view server stop is retried once after CloseRetryDelay.
func (p *Pilot) Close(ctx context.Context) error {
	if err := p.input.Close(); err != nil {
		p.logger.Warn("monkey close failed", "error", err)
	}
	err := p.views.Close(ctx)
	if err != nil {
		p.logger.Warn("view server stop failed, retrying", "error", err)
		p.clock.Sleep(p.opts.CloseRetryDelay)
		err = p.views.Close(ctx)
	}
	if err != nil {
		return fmt.Errorf("stop view server: %w", err)
	}
	return nil
}

// APILevel returns the SDK level read by Open.
func (p *Pilot) APILevel() int { return p.apiLevel }

// DisplaySize returns the display size read by Open.
func (p *Pilot) DisplaySize() (width, height int) { return p.width, p.height }

// Refresh replaces the current tree with a fresh dump of every window.
func (p *Pilot) Refresh(ctx context.Context) error {
	dump, err := p.views.DumpAll(ctx)
	if err != nil {
		return fmt.Errorf("dump views: %w", err)
	}
	tree, err := viewdump.Parse(dump, p.logger)
	if err != nil {
		return err
	}
	p.tree = tree
	p.logger.Debug("view tree refreshed", "nodes", tree.Len())
	return nil
}

// DumpWindow parses a dump of a single window. The current tree is left
// unchanged.
func (p *Pilot) DumpWindow(ctx context.Context, hash string) (*model.Tree, error) {
	dump, err := p.views.Dump(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("dump window %s: %w", hash, err)
	}
	return viewdump.Parse(dump, p.logger)
}

// Tree returns the tree from the last Refresh. Before the first refresh
// it is empty.
func (p *Pilot) Tree() *model.Tree {
	if p.tree == nil {
		return model.NewTree(nil)
	}
	return p.tree
}

// ViewByID returns the first shown view with id "id/<ident>" in the
// current tree.
func (p *Pilot) ViewByID(ident string) (*model.Node, error) {
	if n := p.Tree().ByID(ident, "id"); n != nil {
		return n, nil
	}
	return nil, fmt.Errorf("%w: id/%s", ErrViewNotFound, ident)
}

// ViewByText returns the first shown view whose text contains text
// (partial) or equals it.
func (p *Pilot) ViewByText(text string, partial bool) (*model.Node, error) {
	if n := p.Tree().ByText(text, partial); n != nil {
		return n, nil
	}
	return nil, fmt.Errorf("%w: text %q", ErrViewNotFound, text)
}

// ExistsByID reports whether a shown view has id "id/<ident>".
func (p *Pilot) ExistsByID(ident string) bool {
	_, err := p.ViewByID(ident)
	return err == nil
}

// ExistsByText reports whether a shown view matches text.
func (p *Pilot) ExistsByText(text string, partial bool) bool {
	_, err := p.ViewByText(text, partial)
	return err == nil
}

// ExistsByClass reports whether any view, shown or not, has the class.
func (p *Pilot) ExistsByClass(className string) bool {
	return p.Tree().HasClass(className)
}

// ClickByID taps the centre of the view found by ViewByID.
func (p *Pilot) ClickByID(ctx context.Context, ident string) error {
	if ident == "" {
		return errors.New("empty view id")
	}
	n, err := p.ViewByID(ident)
	if err != nil {
		return err
	}
	return p.tapNode(ctx, n)
}

// ClickByText taps the centre of the view found by ViewByText.
func (p *Pilot) ClickByText(ctx context.Context, text string, partial bool) error {
	if text == "" {
		return errors.New("empty view text")
	}
	n, err := p.ViewByText(text, partial)
	if err != nil {
		return err
	}
	return p.tapNode(ctx, n)
}

func (p *Pilot) tapNode(ctx context.Context, n *model.Node) error {
	x, y := n.Center()
	p.logger.Debug("tapping view", "view", n.String(), "x", x, "y", y)
	return p.input.Tap(ctx, x, y)
}

// Tap taps screen coordinates.
func (p *Pilot) Tap(ctx context.Context, x, y int) error { return p.input.Tap(ctx, x, y) }

// Press presses a named key such as "home" or "back".
func (p *Pilot) Press(ctx context.Context, key string) error { return p.input.Press(ctx, key) }

func (p *Pilot) PressHome(ctx context.Context) error { return p.Press(ctx, "home") }
func (p *Pilot) PressBack(ctx context.Context) error { return p.Press(ctx, "back") }
func (p *Pilot) PressMenu(ctx context.Context) error { return p.Press(ctx, "menu") }

// Drag drags between two points; zero steps or duration use the session
// defaults.
func (p *Pilot) Drag(ctx context.Context, from, to device.Point, steps int, duration time.Duration) error {
	return p.input.Drag(ctx, from, to, steps, duration)
}

// Swipe swipes across the whole screen.
func (p *Pilot) Swipe(ctx context.Context, d device.Direction) error { return p.input.Swipe(ctx, d) }

// Type enters text on the focused input.
func (p *Pilot) Type(ctx context.Context, text string) error { return p.input.Type(ctx, text) }

// Wake wakes the device.
func (p *Pilot) Wake(ctx context.Context) error { return p.input.Wake(ctx) }

// Disconnect ends the monkey client connection. The service keeps
// running and the next input reconnects to it.
func (p *Pilot) Disconnect() error { return p.input.Done() }

// GetVar reads a monkey variable.
func (p *Pilot) GetVar(ctx context.Context, name string) (string, error) {
	return p.input.GetVar(ctx, name)
}

// Windows lists the windows known to the window manager.
func (p *Pilot) Windows(ctx context.Context) ([]model.Window, error) { return p.views.List(ctx) }

// FocusedActivity returns the name of the focused activity.
func (p *Pilot) FocusedActivity(ctx context.Context) (string, error) {
	return p.views.FocusedActivity(ctx)
}

func (p *Pilot) device() (Device, error) {
	if p.dev == nil {
		return nil, ErrNoDevice
	}
	return p.dev, nil
}

// StartActivity launches pkg/activity and waits for it to start.
func (p *Pilot) StartActivity(ctx context.Context, pkg, activity string) error {
	d, err := p.device()
	if err != nil {
		return err
	}
	if err := d.StartActivity(ctx, pkg, activity); err != nil {
		return err
	}
	p.logger.Debug("activity started", "package", pkg, "activity", activity)
	return nil
}

// Install installs or replaces an APK.
func (p *Pilot) Install(ctx context.Context, apk string) error {
	d, err := p.device()
	if err != nil {
		return err
	}
	if err := d.Install(ctx, apk); err != nil {
		p.logger.Warn("package not installed", "apk", apk, "error", err)
		return err
	}
	p.logger.Info("package installed", "apk", apk)
	return nil
}

// Push copies a local file to the device.
func (p *Pilot) Push(ctx context.Context, src, dst string) error {
	d, err := p.device()
	if err != nil {
		return err
	}
	return d.Push(ctx, src, dst)
}

// Screenshot returns a PNG of the screen.
func (p *Pilot) Screenshot(ctx context.Context) ([]byte, error) {
	d, err := p.device()
	if err != nil {
		return nil, err
	}
	return d.Screencap(ctx)
}

// Logcat returns the device log buffer.
func (p *Pilot) Logcat(ctx context.Context) (string, error) {
	d, err := p.device()
	if err != nil {
		return "", err
	}
	return d.Logcat(ctx)
}
