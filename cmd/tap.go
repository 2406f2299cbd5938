package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/output"
	"github.com/mj1618/droid-cli/internal/pilot"
)

var tapCmd = &cobra.Command{
	Use:   "tap",
	Short: "Tap a view or screen coordinates",
	Long: `Tap the centre of a view found by resource id or text, or tap raw screen
coordinates. Only views that are shown on screen can be tapped by id or text.`,
	RunE: runTap,
}

func init() {
	rootCmd.AddCommand(tapCmd)
	tapCmd.Flags().String("id", "", "Resource id of the view, with or without the id/ prefix")
	tapCmd.Flags().String("text", "", "Text of the view (substring unless --exact)")
	tapCmd.Flags().Bool("exact", false, "Require the whole text to match")
	tapCmd.Flags().Int("x", -1, "X screen coordinate")
	tapCmd.Flags().Int("y", -1, "Y screen coordinate")
}

// tapTarget is what a tap command resolved its flags to.
type tapTarget struct {
	ID    string
	Text  string
	Exact bool
	X, Y  int
}

func (t tapTarget) byView() bool { return t.ID != "" || t.Text != "" }

func (t tapTarget) validate() error {
	if t.ID != "" && t.Text != "" {
		return fmt.Errorf("--id and --text cannot be used together")
	}
	if !t.byView() && (t.X < 0 || t.Y < 0) {
		return fmt.Errorf("specify --id, --text, or both --x and --y")
	}
	return nil
}

func (t tapTarget) String() string {
	switch {
	case t.ID != "":
		return "id/" + trimIDPrefix(t.ID)
	case t.Text != "":
		return t.Text
	default:
		return fmt.Sprintf("%d,%d", t.X, t.Y)
	}
}

func trimIDPrefix(id string) string { return strings.TrimPrefix(id, "id/") }

// find looks the target view up in the pilot's current tree.
func (t tapTarget) find(p *pilot.Pilot) (*model.Node, error) {
	if t.ID != "" {
		return p.ViewByID(trimIDPrefix(t.ID))
	}
	return p.ViewByText(t.Text, !t.Exact)
}

func runTap(cmd *cobra.Command, args []string) error {
	var t tapTarget
	t.ID, _ = cmd.Flags().GetString("id")
	t.Text, _ = cmd.Flags().GetString("text")
	t.Exact, _ = cmd.Flags().GetBool("exact")
	t.X, _ = cmd.Flags().GetInt("x")
	t.Y, _ = cmd.Flags().GetInt("y")
	if err := t.validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	start := time.Now()
	result := output.ActionResult{OK: true, Action: "tap", Target: t.String()}

	var err error
	if t.byView() {
		err = withPilot(ctx, func(p *pilot.Pilot) error {
			if err := p.Refresh(ctx); err != nil {
				return err
			}
			n, err := t.find(p)
			if err != nil {
				return err
			}
			result.X, result.Y = n.Center()
			return p.Tap(ctx, result.X, result.Y)
		})
	} else {
		result.X, result.Y = t.X, t.Y
		err = withMonkey(ctx, func(m *device.Monkey) error {
			return m.Tap(ctx, t.X, t.Y)
		})
	}
	if err != nil {
		return err
	}
	result.Elapsed = elapsed(start)
	return output.Print(result)
}
