package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/output"
)

var getvarCmd = &cobra.Command{
	Use:   "getvar NAME...",
	Short: "Read monkey variables",
	Long: `Read one or more monkey variables such as build.version.sdk,
display.width or am.current.comp.class. Use --list to print every
variable name the device supports.`,
	RunE: runGetvar,
}

func init() {
	rootCmd.AddCommand(getvarCmd)
	getvarCmd.Flags().Bool("list", false, "List the variable names instead")
}

// getvarEntry is one variable in the getvar output.
type getvarEntry struct {
	Name  string `yaml:"name"  json:"name"`
	Value string `yaml:"value" json:"value"`
}

func runGetvar(cmd *cobra.Command, args []string) error {
	list, _ := cmd.Flags().GetBool("list")
	if !list && len(args) == 0 {
		return cmd.Usage()
	}

	ctx := cmd.Context()
	var entries []getvarEntry
	var names []string
	err := withMonkey(ctx, func(m *device.Monkey) error {
		if list {
			var err error
			names, err = m.ListVars(ctx)
			return err
		}
		for _, name := range args {
			v, err := m.GetVar(ctx, name)
			if err != nil {
				return err
			}
			entries = append(entries, getvarEntry{Name: name, Value: v})
		}
		return nil
	})
	if err != nil {
		return err
	}
	if list {
		return output.Print(names)
	}
	return output.Print(entries)
}
