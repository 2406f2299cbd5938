package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/output"
	"github.com/mj1618/droid-cli/internal/snapshot"
)

var diffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Compare two snapshot files",
	Long: `Compare two snapshots written by dump --save.

Views are matched by class, id and position in the tree rather than by
hash-code, so snapshots taken in different runs of an app can be compared.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().Bool("shown-only", false, "Ignore views that are not shown")
}

func runDiff(cmd *cobra.Command, args []string) error {
	shownOnly, _ := cmd.Flags().GetBool("shown-only")
	filter := elementFilter{ShownOnly: shownOnly}

	var flat [2][]model.FlatElement
	for i, path := range args {
		s, err := snapshot.Load(path)
		if err != nil {
			return err
		}
		tree, err := s.Tree(logger)
		if err != nil {
			return err
		}
		flat[i] = model.FlattenElements(filter.apply(tree))
	}
	return output.Print(model.DiffByContent(flat[0], flat[1]))
}
