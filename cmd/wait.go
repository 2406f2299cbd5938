package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/output"
	"github.com/mj1618/droid-cli/internal/pilot"
)

// WaitResult is the output of a wait command.
type WaitResult struct {
	OK       bool   `yaml:"ok"                  json:"ok"`
	Action   string `yaml:"action"              json:"action"`
	Elapsed  string `yaml:"elapsed"             json:"elapsed"`
	Match    string `yaml:"match,omitempty"     json:"match,omitempty"`
	TimedOut bool   `yaml:"timed_out,omitempty" json:"timed_out,omitempty"`
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for a UI condition to be met",
	Long: `Poll the device until a condition is met or the timeout is reached.

Text and id conditions re-read the view hierarchy on every poll; when both
are given, a single view must match both. --gone inverts them.`,
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().String("for-text", "", "Wait for a shown view containing this text")
	waitCmd.Flags().String("for-id", "", "Wait for a shown view with this resource id")
	waitCmd.Flags().String("for-activity", "", "Wait for this activity to have focus")
	waitCmd.Flags().String("for-notification", "", "Wait for a notification whose title contains this")
	waitCmd.Flags().Bool("dialog-closed", false, "Wait for the number of windows to drop")
	waitCmd.Flags().Bool("gone", false, "Invert: wait until the text or id condition is NO LONGER true")
	waitCmd.Flags().Int("timeout", 0, "Max seconds to wait (default: from config)")
}

// waitCondition is what a wait command polls for.
type waitCondition struct {
	Text         string
	ID           string
	Activity     string
	Notification string
	DialogClosed bool
	Gone         bool
}

func (c waitCondition) validate() error {
	n := 0
	if c.Text != "" || c.ID != "" {
		n++
	}
	for _, set := range []bool{c.Activity != "", c.Notification != "", c.DialogClosed} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return fmt.Errorf("specify a condition: --for-text, --for-id, --for-activity, --for-notification, or --dialog-closed")
	case n > 1:
		return fmt.Errorf("--for-activity, --for-notification and --dialog-closed cannot be combined with other conditions")
	case c.Gone && c.Text == "" && c.ID == "":
		return fmt.Errorf("--gone only applies to --for-text and --for-id")
	}
	return nil
}

// matches reports whether the tree satisfies the text and id condition.
func (c waitCondition) matches(t *model.Tree) bool {
	found := t.Find(func(n *model.Node) bool {
		if !n.Shown {
			return false
		}
		if c.ID != "" && n.ID != "id/"+trimIDPrefix(c.ID) {
			return false
		}
		return c.Text == "" || strings.Contains(n.Text, c.Text)
	}) != nil
	return found != c.Gone
}

func (c waitCondition) String() string {
	var parts []string
	switch {
	case c.Activity != "":
		parts = append(parts, "activity="+c.Activity)
	case c.Notification != "":
		parts = append(parts, fmt.Sprintf("notification=%q", c.Notification))
	case c.DialogClosed:
		parts = append(parts, "dialog-closed")
	}
	if c.ID != "" {
		parts = append(parts, "id="+trimIDPrefix(c.ID))
	}
	if c.Text != "" {
		parts = append(parts, fmt.Sprintf("text=%q", c.Text))
	}
	desc := strings.Join(parts, " ")
	if c.Gone {
		desc += " (gone)"
	}
	return desc
}

func runWait(cmd *cobra.Command, args []string) error {
	var c waitCondition
	c.Text, _ = cmd.Flags().GetString("for-text")
	c.ID, _ = cmd.Flags().GetString("for-id")
	c.Activity, _ = cmd.Flags().GetString("for-activity")
	c.Notification, _ = cmd.Flags().GetString("for-notification")
	c.DialogClosed, _ = cmd.Flags().GetBool("dialog-closed")
	c.Gone, _ = cmd.Flags().GetBool("gone")
	timeoutSec, _ := cmd.Flags().GetInt("timeout")
	if err := c.validate(); err != nil {
		return err
	}
	timeout := secondsFlag(timeoutSec)

	ctx := cmd.Context()
	start := time.Now()
	err := withPilot(ctx, func(p *pilot.Pilot) error {
		switch {
		case c.Activity != "":
			return p.WaitForActivity(ctx, c.Activity, timeout)
		case c.Notification != "":
			return p.WaitForNotification(ctx, pilot.ByTitle(c.Notification, true), timeout)
		case c.DialogClosed:
			return p.WaitForDialogToClose(ctx, timeout)
		default:
			return p.WaitFor(ctx, c.matches, true, timeout)
		}
	})

	result := WaitResult{OK: err == nil, Action: "wait", Elapsed: elapsed(start), Match: c.String()}
	if errors.Is(err, pilot.ErrTimeout) {
		// Print the result, then return an error for non-zero exit code
		result.TimedOut = true
		_ = output.Print(result)
		return fmt.Errorf("timed out waiting for condition: %s", c)
	}
	if err != nil {
		return err
	}
	return output.Print(result)
}
