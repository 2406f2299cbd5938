package pilot

import (
	"context"
	"errors"
	"testing"

	"github.com/mj1618/droid-cli/internal/model"
)

const statusBarDump = "com.android.systemui.statusbar.phone.PhoneStatusBarView@f1 mID=5,NO_ID getVisibility()=7,VISIBLE \n" +
	" android.widget.LinearLayout@n1 mID=34,id/status_bar_latest_event_content getVisibility()=7,VISIBLE \n" +
	"  android.widget.TextView@t1 mID=8,id/title mText=4,Mail getVisibility()=7,VISIBLE \n" +
	"  android.widget.TextView@x1 mID=7,id/text mText=9,2 new msg getVisibility()=7,VISIBLE \n" +
	" android.widget.LinearLayout@n2 mID=34,id/status_bar_latest_event_content getVisibility()=7,VISIBLE \n" +
	"  android.widget.TextView@t2 mID=8,id/title mText=4,Sync getVisibility()=7,VISIBLE \n" +
	"DONE.\n"

const legacyStatusBarDump = "com.android.systemui.statusbar.ExpandedView@e1 mID=5,NO_ID getVisibility()=7,VISIBLE \n" +
	" android.widget.LinearLayout@o1 mID=15,id/ongoingItems getVisibility()=7,VISIBLE \n" +
	"  com.android.systemui.statusbar.LatestItemView@l1 mID=10,id/content getVisibility()=7,VISIBLE \n" +
	"   android.widget.TextView@t1 mID=8,id/title mText=3,USB getVisibility()=7,VISIBLE \n" +
	"   android.widget.TextView@x1 mID=7,id/text mText=9,Connected getVisibility()=7,VISIBLE \n" +
	"DONE.\n"

func statusBarViews() *fakeViews {
	return &fakeViews{
		windows: [][]model.Window{{
			{Hash: "a1", Class: "com.example/.Main"},
			{Hash: "f1", Class: "StatusBar"},
			{Hash: "e1", Class: "StatusBarExpanded"},
		}},
		byHash: map[string]string{"f1": statusBarDump, "e1": legacyStatusBarDump},
	}
}

func TestNotifications(t *testing.T) {
	p, _ := newTestPilot(statusBarViews(), &fakeInput{}, nil)
	p.apiLevel = 19

	ns, err := p.Notifications(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ns) != 2 {
		t.Fatalf("got %d notifications, want 2", len(ns))
	}
	if ns[0].Title != "Mail" || ns[0].Message != "2 new msg" || ns[0].Hash != "n1" {
		t.Errorf("first: got %+v", ns[0])
	}
	if ns[1].Title != "Sync" || ns[1].Message != "" {
		t.Errorf("second: got %+v", ns[1])
	}

	if got := FilterNotifications(ns, ByTitle("Sync", false)); len(got) != 1 {
		t.Errorf("by title: got %d, want 1", len(got))
	}
	if got := FilterNotifications(ns, ByMessage("new", true)); len(got) != 1 {
		t.Errorf("by message: got %d, want 1", len(got))
	}
	if got := FilterNotifications(ns, ByMessage("new", false)); len(got) != 0 {
		t.Errorf("exact message: got %d, want 0", len(got))
	}
}

func TestNotifications_Legacy(t *testing.T) {
	p, _ := newTestPilot(statusBarViews(), &fakeInput{}, nil)
	p.apiLevel = 10

	ns, err := p.Notifications(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ns) != 1 || ns[0].Title != "USB" || ns[0].Message != "Connected" {
		t.Errorf("got %+v", ns)
	}
}

func TestNotifications_NoStatusBar(t *testing.T) {
	views := &fakeViews{windows: [][]model.Window{{{Hash: "a1", Class: "com.example/.Main"}}}}
	p, _ := newTestPilot(views, &fakeInput{}, nil)

	if _, err := p.Notifications(context.Background()); !errors.Is(err, ErrViewNotFound) {
		t.Errorf("got %v, want ErrViewNotFound", err)
	}
}

func TestWaitForNotification(t *testing.T) {
	p, _ := newTestPilot(statusBarViews(), &fakeInput{}, nil)

	if err := p.WaitForNotification(context.Background(), ByTitle("Mail", false), 0); err != nil {
		t.Fatal(err)
	}
	err := p.WaitForNotification(context.Background(), ByTitle("Calendar", true), 0)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("got %v, want ErrTimeout", err)
	}
}

func TestOpenNotificationBar(t *testing.T) {
	input := &fakeInput{}
	p, clk := newTestPilot(&fakeViews{}, input, nil)
	p.width, p.height = 480, 800

	if err := p.OpenNotificationBar(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := "drag 240,0 240,600 3 500ms"
	if len(input.cmds) != 1 || input.cmds[0] != want {
		t.Errorf("got %v, want [%s]", input.cmds, want)
	}
	if got := clk.Slept(); got != notificationBarSettle {
		t.Errorf("slept: got %v, want %v", got, notificationBarSettle)
	}
}
