package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/output"
)

// FocusResult is the output of the focus command.
type FocusResult struct {
	Hash     string `yaml:"hash,omitempty"     json:"hash,omitempty"`
	Window   string `yaml:"window,omitempty"   json:"window,omitempty"`
	Activity string `yaml:"activity,omitempty" json:"activity,omitempty"`
}

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Show the focused window",
	Long:  "Show the window that has input focus and the activity it belongs to.",
	RunE:  runFocus,
}

func init() {
	rootCmd.AddCommand(focusCmd)
}

func runFocus(cmd *cobra.Command, args []string) error {
	var res FocusResult
	err := withViews(cmd.Context(), func(vs *device.ViewServer) error {
		w, err := vs.Focus(cmd.Context())
		if err != nil {
			return err
		}
		res = focusResult(w.Hash, w.Class)
		return nil
	})
	if err != nil {
		return err
	}
	return output.Print(res)
}

// focusResult splits a "<package>/<activity>" window name.
func focusResult(hash, class string) FocusResult {
	res := FocusResult{Hash: hash, Window: class, Activity: class}
	if _, act, ok := strings.Cut(class, "/"); ok {
		res.Activity = act
	}
	return res
}
