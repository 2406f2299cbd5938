package pilot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mj1618/droid-cli/internal/clock"
	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/model"
)

var errBoom = errors.New("boom")

// at returns seq[i], repeating the last element once i runs past the end.
func at[T any](seq []T, i int) T {
	var zero T
	if len(seq) == 0 {
		return zero
	}
	if i >= len(seq) {
		return seq[len(seq)-1]
	}
	return seq[i]
}

type fakeViews struct {
	dumps     []string
	dumpCalls int
	byHash    map[string]string

	windows   [][]model.Window
	listCalls int
	listErr   error

	focus      []string
	focusCalls int

	openErr    error
	opened     bool
	closeErrs  []error
	closeCalls int
}

func (f *fakeViews) Open(context.Context) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	return nil
}

func (f *fakeViews) Close(context.Context) error {
	err := at(f.closeErrs, f.closeCalls)
	f.closeCalls++
	return err
}

func (f *fakeViews) DumpAll(context.Context) (string, error) {
	d := at(f.dumps, f.dumpCalls)
	f.dumpCalls++
	return d, nil
}

func (f *fakeViews) Dump(_ context.Context, hash string) (string, error) {
	d, ok := f.byHash[hash]
	if !ok {
		return "", fmt.Errorf("no window %s", hash)
	}
	return d, nil
}

func (f *fakeViews) List(context.Context) ([]model.Window, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	w := at(f.windows, f.listCalls)
	f.listCalls++
	return w, nil
}

func (f *fakeViews) FocusedActivity(context.Context) (string, error) {
	a := at(f.focus, f.focusCalls)
	f.focusCalls++
	return a, nil
}

type fakeInput struct {
	cmds     []string
	openErr  error
	closed   bool
	apiLevel int
	width    int
	height   int
	vars     map[string]string
}

func (f *fakeInput) record(format string, args ...any) error {
	f.cmds = append(f.cmds, fmt.Sprintf(format, args...))
	return nil
}

func (f *fakeInput) Open(context.Context) error { return f.openErr }
func (f *fakeInput) Close() error               { f.closed = true; return nil }

func (f *fakeInput) Tap(_ context.Context, x, y int) error    { return f.record("tap %d %d", x, y) }
func (f *fakeInput) Press(_ context.Context, key string) error { return f.record("press %s", key) }
func (f *fakeInput) Type(_ context.Context, text string) error { return f.record("type %s", text) }
func (f *fakeInput) Wake(context.Context) error                { return f.record("wake") }
func (f *fakeInput) Done() error                               { return f.record("done") }

func (f *fakeInput) Drag(_ context.Context, from, to device.Point, steps int, d time.Duration) error {
	return f.record("drag %d,%d %d,%d %d %s", from.X, from.Y, to.X, to.Y, steps, d)
}

func (f *fakeInput) Swipe(_ context.Context, d device.Direction) error {
	return f.record("swipe %s", d)
}

func (f *fakeInput) GetVar(_ context.Context, name string) (string, error) {
	v, ok := f.vars[name]
	if !ok {
		return "", device.ErrVariableNotFound
	}
	return v, nil
}

func (f *fakeInput) DisplaySize(context.Context) (int, int, error) { return f.width, f.height, nil }
func (f *fakeInput) APILevel(context.Context) (int, error)         { return f.apiLevel, nil }

type fakeDevice struct {
	started   []string
	installed []string
}

func (f *fakeDevice) Serial() string { return "emulator-5554" }

func (f *fakeDevice) StartActivity(_ context.Context, pkg, activity string) error {
	f.started = append(f.started, pkg+"/"+activity)
	return nil
}

func (f *fakeDevice) Install(_ context.Context, apk string) error {
	f.installed = append(f.installed, apk)
	return nil
}

func (f *fakeDevice) Push(context.Context, string, string) error { return nil }

func (f *fakeDevice) Screencap(context.Context) ([]byte, error) { return []byte("png"), nil }

func (f *fakeDevice) Logcat(context.Context) (string, error) { return "I/Test: hello", nil }

var testOptions = Options{
	WaitTimeout:     time.Second,
	WaitInterval:    500 * time.Millisecond,
	CloseRetryDelay: time.Second,
}

func newTestPilot(views *fakeViews, input *fakeInput, dev Device) (*Pilot, *clock.Fake) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	return New(views, input, dev, testOptions, clk, nil), clk
}
