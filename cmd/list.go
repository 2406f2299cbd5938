package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List windows",
	Long:  "List the windows known to the window manager with their hash-code and class. The hash-code can be passed to dump --window.",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().String("class", "", "Only list windows whose class contains this")
}

func runList(cmd *cobra.Command, args []string) error {
	class, _ := cmd.Flags().GetString("class")

	var windows []model.Window
	err := withViews(cmd.Context(), func(vs *device.ViewServer) error {
		var err error
		windows, err = vs.List(cmd.Context())
		return err
	})
	if err != nil {
		return err
	}
	return output.Print(filterWindows(windows, class))
}

// filterWindows keeps windows whose class contains class. It never
// returns nil so empty results print as a list.
func filterWindows(windows []model.Window, class string) []model.Window {
	out := []model.Window{}
	for _, w := range windows {
		if class == "" || containsFold(w.Class, class) {
			out = append(out, w)
		}
	}
	return out
}
