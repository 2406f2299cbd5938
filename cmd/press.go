package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/output"
)

var pressCmd = &cobra.Command{
	Use:   "press KEY...",
	Short: "Press hardware or soft keys",
	Long: `Press one or more keys in order. KEY is a monkey key name such as home,
back, menu, enter, dpad_down or a KEYCODE_ constant name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPress,
}

func init() {
	rootCmd.AddCommand(pressCmd)
	pressCmd.Flags().Bool("wake", false, "Wake the device before pressing")
}

func runPress(cmd *cobra.Command, args []string) error {
	wake, _ := cmd.Flags().GetBool("wake")

	ctx := cmd.Context()
	start := time.Now()
	err := withMonkey(ctx, func(m *device.Monkey) error {
		if wake {
			if err := m.Wake(ctx); err != nil {
				return err
			}
		}
		for _, key := range args {
			if err := m.Press(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return output.Print(output.ActionResult{OK: true, Action: "press", Target: strings.Join(args, " "), Elapsed: elapsed(start)})
}
