package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/output"
	"github.com/mj1618/droid-cli/internal/viewdump"
)

var findCmd = &cobra.Command{
	Use:   "find TEXT",
	Short: "Search for views by text or id",
	Long:  "Search every window for shown views whose text or resource id matches TEXT (case-insensitive substring unless --exact).",
	Args:  cobra.ExactArgs(1),
	RunE:  runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().Bool("exact", false, "Require exact match instead of substring")
	findCmd.Flags().Int("limit", 10, "Max matching views to return (0 = no limit)")
	findCmd.Flags().Bool("all", false, "Include views that are not shown")
}

// findResult is the top-level output of the find command.
type findResult struct {
	Text    string              `yaml:"text"    json:"text"`
	Matches []model.FlatElement `yaml:"matches" json:"matches"`
	Total   int                 `yaml:"total"   json:"total"`
}

func runFind(cmd *cobra.Command, args []string) error {
	text := args[0]
	exact, _ := cmd.Flags().GetBool("exact")
	limit, _ := cmd.Flags().GetInt("limit")
	all, _ := cmd.Flags().GetBool("all")

	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("search text must not be empty")
	}

	var tree *model.Tree
	err := withViews(cmd.Context(), func(vs *device.ViewServer) error {
		dump, err := vs.DumpAll(cmd.Context())
		if err != nil {
			return err
		}
		tree, err = viewdump.Parse(dump, logger)
		return err
	})
	if err != nil {
		return err
	}
	return output.Print(findInTree(tree, text, exact, !all, limit))
}

func findInTree(t *model.Tree, text string, exact, shownOnly bool, limit int) findResult {
	elements := model.Elements(t)
	if shownOnly {
		elements = model.FilterShown(elements)
	}
	matches := model.FindFlat(model.FlattenElements(elements), text, exact)
	res := findResult{Text: text, Total: len(matches), Matches: matches}
	if limit > 0 && len(matches) > limit {
		res.Matches = matches[:limit]
	}
	if res.Matches == nil {
		res.Matches = []model.FlatElement{}
	}
	return res
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
