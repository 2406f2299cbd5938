package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/output"
)

var dragCmd = &cobra.Command{
	Use:   "drag",
	Short: "Drag from one point to another",
	Long:  "Press at --from, move through --steps evenly spaced points over --duration, and release at --to. Points are given as x,y.",
	RunE:  runDrag,
}

func init() {
	rootCmd.AddCommand(dragCmd)
	dragCmd.Flags().String("from", "", "Start point as x,y (required)")
	dragCmd.Flags().String("to", "", "End point as x,y (required)")
	dragCmd.Flags().Int("steps", 0, "Number of move events (default: from config)")
	dragCmd.Flags().Int("duration", 0, "Total duration in milliseconds (default: from config)")
	_ = dragCmd.MarkFlagRequired("from")
	_ = dragCmd.MarkFlagRequired("to")
}

func runDrag(cmd *cobra.Command, args []string) error {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	steps, _ := cmd.Flags().GetInt("steps")
	durationMs, _ := cmd.Flags().GetInt("duration")

	from, err := device.ParsePoint(fromStr)
	if err != nil {
		return err
	}
	to, err := device.ParsePoint(toStr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	start := time.Now()
	err = withMonkey(ctx, func(m *device.Monkey) error {
		return m.Drag(ctx, from, to, steps, time.Duration(durationMs)*time.Millisecond)
	})
	if err != nil {
		return err
	}
	return output.Print(output.ActionResult{
		OK:      true,
		Action:  "drag",
		Target:  fromStr + " -> " + toStr,
		X:       to.X,
		Y:       to.Y,
		Elapsed: elapsed(start),
	})
}
