package cmd

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mj1618/droid-cli/internal/clock"
	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/pilot"
	"github.com/mj1618/droid-cli/internal/viewdump"
)

// loginDump has a shown clickable button at [10,70,100,40] with centre
// (60,90), a disabled field and a hidden label.
const loginDump = "com.android.internal.policy.DecorView@a1 mID=5,NO_ID mRight=3,480 mBottom=3,800 getVisibility()=7,VISIBLE isEnabled()=4,true \n" +
	" android.widget.LinearLayout@b2 mID=10,id/content mTop=2,50 mRight=3,480 mBottom=3,800 getVisibility()=7,VISIBLE isEnabled()=4,true \n" +
	"  android.widget.Button@c3 mID=10,id/sign_in mText=7,Sign in mLeft=2,10 mTop=2,20 mRight=3,110 mBottom=2,60 isClickable()=4,true getVisibility()=7,VISIBLE isEnabled()=4,true \n" +
	"  android.widget.EditText@e5 mID=11,id/username mText=4,jane mLeft=2,10 mTop=3,100 mRight=3,300 mBottom=3,140 getVisibility()=7,VISIBLE isEnabled()=5,false focus:hasFocus()=4,true \n" +
	"  android.widget.TextView@d4 mID=9,id/banner mText=7,Welcome getVisibility()=4,GONE \n" +
	"DONE.\n"

const welcomeDump = "com.android.internal.policy.DecorView@a1 mID=5,NO_ID mRight=3,480 mBottom=3,800 getVisibility()=7,VISIBLE isEnabled()=4,true \n" +
	" android.widget.TextView@f6 mID=9,id/banner mText=7,Welcome mRight=3,480 mBottom=2,40 getVisibility()=7,VISIBLE isEnabled()=4,true \n" +
	"DONE.\n"

func mustParse(t *testing.T, dump string) *model.Tree {
	t.Helper()
	tree, err := viewdump.Parse(dump, nil)
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

// at returns seq[i], repeating the last element once i runs past the end.
func at[T any](seq []T, i int) T {
	var zero T
	if len(seq) == 0 {
		return zero
	}
	return seq[min(i, len(seq)-1)]
}

type fakeViews struct {
	dumps     []string
	dumpCalls int
	focus     []string
}

func (f *fakeViews) Open(context.Context) error  { return nil }
func (f *fakeViews) Close(context.Context) error { return nil }

func (f *fakeViews) DumpAll(context.Context) (string, error) {
	d := at(f.dumps, f.dumpCalls)
	f.dumpCalls++
	return d, nil
}

func (f *fakeViews) Dump(context.Context, string) (string, error) {
	return at(f.dumps, f.dumpCalls), nil
}

func (f *fakeViews) List(context.Context) ([]model.Window, error) { return nil, nil }

func (f *fakeViews) FocusedActivity(context.Context) (string, error) {
	return at(f.focus, 0), nil
}

type fakeInput struct {
	cmds []string
	vars map[string]string
}

func (f *fakeInput) record(format string, args ...any) error {
	f.cmds = append(f.cmds, fmt.Sprintf(format, args...))
	return nil
}

func (f *fakeInput) Open(context.Context) error { return nil }
func (f *fakeInput) Close() error               { return nil }

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

func (f *fakeInput) DisplaySize(context.Context) (int, int, error) { return 480, 800, nil }
func (f *fakeInput) APILevel(context.Context) (int, error)         { return 19, nil }

func newTestBatch(views *fakeViews, input *fakeInput) (*batch, *clock.Fake) {
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	opts := pilot.Options{WaitTimeout: 2 * time.Second, WaitInterval: 500 * time.Millisecond, CloseRetryDelay: time.Second}
	p := pilot.New(views, input, nil, opts, clk, nil)
	return &batch{pilot: p, clock: clk, stopOnError: true}, clk
}
