package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/viewdump"
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Watch for UI changes and stream diffs as JSONL",
	Long: `Continuously dump the view hierarchy and emit changes (added, removed, changed views) as JSONL to stdout.

Each line is a JSON object representing one change event. Views are matched
by hash-code, so a view that is recreated shows up as removed and added.
No output is emitted when the UI is stable.

Output is always JSONL regardless of the --format flag.

Use Ctrl+C or --duration to stop observing.`,
	RunE: runObserve,
}

func init() {
	rootCmd.AddCommand(observeCmd)
	observeCmd.Flags().String("window", "", "Hash-code of the window to observe (default: all windows)")
	observeCmd.Flags().Int("interval", 1000, "Polling interval in milliseconds")
	observeCmd.Flags().Int("duration", 0, "Max seconds to observe (0 = until Ctrl+C)")
	observeCmd.Flags().Bool("shown-only", false, "Ignore views that are not shown")
	observeCmd.Flags().Bool("ignore-bounds", false, "Ignore view position changes")
	observeCmd.Flags().Bool("ignore-focus", false, "Ignore focus changes")
}

// observer turns successive dumps into change events.
type observer struct {
	enc          *json.Encoder
	filter       elementFilter
	ignoreBounds bool
	ignoreFocus  bool

	prev   []model.FlatElement
	events int
}

func newObserver(w io.Writer, filter elementFilter) *observer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &observer{enc: enc, filter: filter}
}

func (o *observer) flatten(t *model.Tree) []model.FlatElement {
	return model.FlattenElements(o.filter.apply(t))
}

// snapshot records the baseline tree.
func (o *observer) snapshot(t *model.Tree, now time.Time) {
	o.prev = o.flatten(t)
	o.enc.Encode(map[string]interface{}{
		"type":  "snapshot",
		"ts":    now.Unix(),
		"count": len(o.prev),
	})
}

// update emits the changes from the previous tree to t.
func (o *observer) update(t *model.Tree) {
	curr := o.flatten(t)
	for _, change := range model.DiffElements(o.prev, curr) {
		if change.Type == model.ChangeChanged {
			if o.ignoreBounds {
				delete(change.Changes, "b")
			}
			if o.ignoreFocus {
				delete(change.Changes, "f")
			}
			if len(change.Changes) == 0 {
				continue
			}
		}
		o.enc.Encode(change)
		o.events++
	}
	o.prev = curr
}

func (o *observer) fail(err error, now time.Time) {
	o.enc.Encode(map[string]interface{}{
		"type":  "error",
		"ts":    now.Unix(),
		"error": err.Error(),
	})
}

func (o *observer) done(start, now time.Time) {
	o.enc.Encode(map[string]interface{}{
		"type":    "done",
		"ts":      now.Unix(),
		"elapsed": fmt.Sprintf("%.1fs", now.Sub(start).Seconds()),
		"events":  o.events,
	})
}

func runObserve(cmd *cobra.Command, args []string) error {
	window, _ := cmd.Flags().GetString("window")
	intervalMs, _ := cmd.Flags().GetInt("interval")
	durationSec, _ := cmd.Flags().GetInt("duration")
	shownOnly, _ := cmd.Flags().GetBool("shown-only")
	ignoreBounds, _ := cmd.Flags().GetBool("ignore-bounds")
	ignoreFocus, _ := cmd.Flags().GetBool("ignore-focus")

	if intervalMs <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if durationSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(durationSec)*time.Second)
		defer cancel()
	}

	o := newObserver(os.Stdout, elementFilter{ShownOnly: shownOnly})
	o.ignoreBounds = ignoreBounds
	o.ignoreFocus = ignoreFocus

	return withViews(ctx, func(vs *device.ViewServer) error {
		read := func() (*model.Tree, error) {
			dump, err := vs.Send(ctx, dumpCommand(window))
			if err != nil {
				return nil, err
			}
			return viewdump.Parse(dump, logger)
		}

		start := time.Now()
		tree, err := read()
		if err != nil {
			return fmt.Errorf("initial dump failed: %w", err)
		}
		o.snapshot(tree, start)

		ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				o.done(start, time.Now())
				return nil
			case <-ticker.C:
			}
			tree, err := read()
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				o.fail(err, time.Now())
				continue
			}
			o.update(tree)
		}
	})
}
