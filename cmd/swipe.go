package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/output"
)

var swipeCmd = &cobra.Command{
	Use:       "swipe DIRECTION",
	Short:     "Swipe across the whole screen",
	Long:      "Swipe across the screen in DIRECTION: left, right, up or down.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"left", "right", "up", "down"},
	RunE:      runSwipe,
}

func init() {
	rootCmd.AddCommand(swipeCmd)
}

func runSwipe(cmd *cobra.Command, args []string) error {
	d, err := device.ParseDirection(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	start := time.Now()
	err = withMonkey(ctx, func(m *device.Monkey) error {
		return m.Swipe(ctx, d)
	})
	if err != nil {
		return err
	}
	return output.Print(output.ActionResult{OK: true, Action: "swipe", Target: d.String(), Elapsed: elapsed(start)})
}
