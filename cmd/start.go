package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/output"
	"github.com/mj1618/droid-cli/internal/pilot"
)

var startCmd = &cobra.Command{
	Use:   "start PACKAGE/ACTIVITY",
	Short: "Start an activity",
	Long: `Start an activity with am start and wait for the launch to complete.
A leading dot in the activity is relative to the package, as with am.

With --wait, the command also waits until the activity has window focus.`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().Bool("wait", false, "Wait for the activity to have focus")
	startCmd.Flags().Int("timeout", 0, "Max seconds to wait with --wait (default: from config)")
}

// splitComponent splits "pkg/activity", expanding a relative activity.
func splitComponent(s string) (pkg, activity string, err error) {
	pkg, activity, ok := strings.Cut(s, "/")
	if !ok || pkg == "" || activity == "" {
		return "", "", fmt.Errorf("invalid component %q: expected package/activity", s)
	}
	if strings.HasPrefix(activity, ".") {
		activity = pkg + activity
	}
	return pkg, activity, nil
}

func runStart(cmd *cobra.Command, args []string) error {
	wait, _ := cmd.Flags().GetBool("wait")
	timeoutSec, _ := cmd.Flags().GetInt("timeout")

	pkg, activity, err := splitComponent(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	start := time.Now()
	if wait {
		err = withPilot(ctx, func(p *pilot.Pilot) error {
			if err := p.StartActivity(ctx, pkg, activity); err != nil {
				return err
			}
			return p.WaitForActivity(ctx, activity, secondsFlag(timeoutSec))
		})
	} else {
		err = adbClient().StartActivity(ctx, pkg, activity)
	}
	if err != nil {
		return err
	}
	return output.Print(output.ActionResult{OK: true, Action: "start", Target: pkg + "/" + activity, Elapsed: elapsed(start)})
}
