package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/output"
	"github.com/mj1618/droid-cli/internal/pilot"
)

var typeCmd = &cobra.Command{
	Use:   "type [text]",
	Short: "Type text into the focused view",
	Long: `Type text into the focused view. Text can be passed as a positional argument
or via --text. With --id the view is tapped first to give it focus.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runType,
}

func init() {
	rootCmd.AddCommand(typeCmd)
	typeCmd.Flags().String("text", "", "Text to type (alternative to positional arg)")
	typeCmd.Flags().String("id", "", "Tap the view with this resource id before typing")
	typeCmd.Flags().Bool("enter", false, "Press enter after typing")
}

// typer is satisfied by both the monkey and the pilot.
type typer interface {
	Type(ctx context.Context, text string) error
	Press(ctx context.Context, key string) error
}

func runType(cmd *cobra.Command, args []string) error {
	text, _ := cmd.Flags().GetString("text")
	id, _ := cmd.Flags().GetString("id")
	enter, _ := cmd.Flags().GetBool("enter")

	// Positional arg overrides --text flag
	if len(args) > 0 {
		text = args[0]
	}
	if text == "" {
		return fmt.Errorf("specify text to type")
	}

	ctx := cmd.Context()
	start := time.Now()
	typeText := func(in typer) error {
		if err := in.Type(ctx, text); err != nil {
			return err
		}
		if enter {
			return in.Press(ctx, "enter")
		}
		return nil
	}

	var err error
	if id != "" {
		err = withPilot(ctx, func(p *pilot.Pilot) error {
			if err := p.Refresh(ctx); err != nil {
				return err
			}
			if err := p.ClickByID(ctx, trimIDPrefix(id)); err != nil {
				return err
			}
			return typeText(p)
		})
	} else {
		err = withMonkey(ctx, func(m *device.Monkey) error { return typeText(m) })
	}
	if err != nil {
		return err
	}

	result := output.ActionResult{OK: true, Action: "type", Target: text, Elapsed: elapsed(start)}
	return output.Print(result)
}
