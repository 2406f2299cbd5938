package pilot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/viewdump"
)

// Status bar window classes as reported by LIST. Releases before API 16
// use a separate expanded window.
const (
	statusBarClass       = "StatusBar"
	statusBarClassLegacy = "StatusBarExpanded"
)

const (
	notificationContentID = "id/status_bar_latest_event_content"
	notificationItemClass = "com.android.systemui.statusbar.LatestItemView"
)

const notificationBarSettle = 500 * time.Millisecond

// Notification is one entry in the expanded status bar.
type Notification struct {
	Title   string      `yaml:"title"   json:"title"`
	Message string      `yaml:"message" json:"message"`
	Hash    string      `yaml:"hash"    json:"hash"`
	Node    *model.Node `yaml:"-"       json:"-"`
}

// NotificationFilter selects notifications.
type NotificationFilter func(Notification) bool

// ByTitle matches notifications whose title contains text (partial) or
// equals it.
func ByTitle(text string, partial bool) NotificationFilter {
	return func(n Notification) bool { return matchText(n.Title, text, partial) }
}

// ByMessage matches on the notification body.
func ByMessage(text string, partial bool) NotificationFilter {
	return func(n Notification) bool { return matchText(n.Message, text, partial) }
}

func matchText(field, text string, partial bool) bool {
	if partial {
		return strings.Contains(field, text)
	}
	return field == text
}

// OpenNotificationBar pulls the status bar down from the top centre to
// three quarters of the screen height.
func (p *Pilot) OpenNotificationBar(ctx context.Context) error {
	x := p.width / 2
	from := device.Point{X: x, Y: 0}
	to := device.Point{X: x, Y: p.height * 3 / 4}
	if err := p.input.Drag(ctx, from, to, 3, notificationBarSettle); err != nil {
		return fmt.Errorf("open notification bar: %w", err)
	}
	p.clock.Sleep(notificationBarSettle)
	return nil
}

// Notifications dumps the status bar window and returns its entries in
// dump order.
func (p *Pilot) Notifications(ctx context.Context) ([]Notification, error) {
	windows, err := p.views.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	want := statusBarClass
	if p.apiLevel > 0 && p.apiLevel < 16 {
		want = statusBarClassLegacy
	}
	var hash string
	for _, w := range windows {
		if w.Class == want {
			hash = w.Hash
			break
		}
	}
	if hash == "" {
		return nil, fmt.Errorf("%w: window %s", ErrViewNotFound, want)
	}

	dump, err := p.views.Dump(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("dump status bar: %w", err)
	}
	tree, err := viewdump.Parse(dump, p.logger)
	if err != nil {
		return nil, err
	}
	return notifications(tree), nil
}

func notifications(t *model.Tree) []Notification {
	items := t.FindAll(func(n *model.Node) bool {
		return n.ID == notificationContentID || n.ClassName == notificationItemClass
	})
	out := make([]Notification, 0, len(items))
	for _, n := range items {
		out = append(out, Notification{
			Title:   firstText(n.ChildrenByID("title")),
			Message: firstText(n.ChildrenByID("text")),
			Hash:    n.HashCode,
			Node:    n,
		})
	}
	return out
}

func firstText(nodes []*model.Node) string {
	if len(nodes) == 0 {
		return ""
	}
	return nodes[0].Text
}

// FilterNotifications returns the notifications matching f.
func FilterNotifications(ns []Notification, f NotificationFilter) []Notification {
	var out []Notification
	for _, n := range ns {
		if f(n) {
			out = append(out, n)
		}
	}
	return out
}

// WaitForNotification re-reads the status bar until a notification
// matches f.
func (p *Pilot) WaitForNotification(ctx context.Context, f NotificationFilter, timeout time.Duration) error {
	ok := p.waiter.Wait(ctx, func() bool {
		ns, err := p.Notifications(ctx)
		if err != nil {
			p.logger.Debug("reading notifications", "error", err)
			return false
		}
		return len(FilterNotifications(ns, f)) > 0
	}, p.waitOptions(timeout, false))
	if !ok {
		return fmt.Errorf("%w: notification not posted", ErrTimeout)
	}
	return nil
}
