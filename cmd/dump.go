package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droid-cli/internal/device"
	"github.com/mj1618/droid-cli/internal/model"
	"github.com/mj1618/droid-cli/internal/output"
	"github.com/mj1618/droid-cli/internal/snapshot"
	"github.com/mj1618/droid-cli/internal/viewdump"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the view hierarchy",
	Long: `Dump the view hierarchy of every window, or of one window with --window.

Elements use compact keys: h=hash-code, cls=class, id=resource id, t=text,
b=[x,y,width,height] in screen pixels, s=shown, k=clickable, f=focused,
e=enabled (only written when false), c=children.

Use --save to keep the raw dump as a snapshot file and --from to read one
back without a device.`,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().String("window", "", "Hash-code of the window to dump (default: all windows)")
	dumpCmd.Flags().Bool("flat", false, "Output a flat list with path breadcrumbs")
	dumpCmd.Flags().Bool("shown-only", false, "Only include views that are visible on screen")
	dumpCmd.Flags().String("text", "", "Only include views whose text or id contains this")
	dumpCmd.Flags().String("class", "", "Comma-separated classes to include (short or full name)")
	dumpCmd.Flags().String("save", "", "Also write the dump to this snapshot file")
	dumpCmd.Flags().String("from", "", "Read a snapshot file instead of the device")
	dumpCmd.Flags().Bool("dot", false, "Print the tree as Graphviz DOT")
	dumpCmd.Flags().Bool("raw", false, "Print the dump in view server format")
}

// elementFilter selects which elements a dump prints.
type elementFilter struct {
	ShownOnly bool
	Text      string
	Classes   []string
}

func (f elementFilter) apply(t *model.Tree) []model.Element {
	elements := model.Elements(t)
	if f.ShownOnly {
		elements = model.FilterShown(elements)
	}
	if f.Text != "" {
		elements = model.FilterByText(elements, f.Text)
	}
	elements = model.FilterByClass(elements, f.Classes)
	if elements == nil {
		elements = []model.Element{}
	}
	return elements
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// dumpCommand is the view server command that produces a dump of window.
func dumpCommand(window string) string {
	if window == "" {
		return device.CmdDumpAll
	}
	return device.CmdDump + " " + window
}

// readDump fetches a dump from the device, saving it when save is set.
func readDump(ctx context.Context, window, save string) (string, error) {
	var raw string
	err := withViews(ctx, func(vs *device.ViewServer) error {
		var err error
		if window == "" {
			raw, err = vs.DumpAll(ctx)
		} else {
			raw, err = vs.Dump(ctx, window)
		}
		return err
	})
	if err != nil {
		return "", err
	}
	if save != "" {
		s := snapshot.Snapshot{
			Serial:  cfg.Device.Serial,
			Command: dumpCommand(window),
			TakenAt: time.Now(),
			Dump:    raw,
		}
		if err := snapshot.Save(save, s); err != nil {
			return "", err
		}
		logger.Info("snapshot saved", "path", save, "bytes", len(raw))
	}
	return raw, nil
}

func runDump(cmd *cobra.Command, args []string) error {
	window, _ := cmd.Flags().GetString("window")
	flat, _ := cmd.Flags().GetBool("flat")
	shownOnly, _ := cmd.Flags().GetBool("shown-only")
	text, _ := cmd.Flags().GetString("text")
	classStr, _ := cmd.Flags().GetString("class")
	save, _ := cmd.Flags().GetString("save")
	from, _ := cmd.Flags().GetString("from")
	dot, _ := cmd.Flags().GetBool("dot")
	raw, _ := cmd.Flags().GetBool("raw")

	if from != "" && save != "" {
		return fmt.Errorf("--from and --save cannot be used together")
	}

	var (
		tree   *model.Tree
		serial = cfg.Device.Serial
		ts     = time.Now()
	)
	if from != "" {
		s, err := snapshot.Load(from)
		if err != nil {
			return err
		}
		if tree, err = s.Tree(logger); err != nil {
			return err
		}
		serial, ts = s.Serial, s.TakenAt
	} else {
		dump, err := readDump(cmd.Context(), window, save)
		if err != nil {
			return err
		}
		if tree, err = viewdump.Parse(dump, logger); err != nil {
			return err
		}
	}

	switch {
	case dot:
		fmt.Print(model.DOT(tree))
		return nil
	case raw:
		fmt.Print(viewdump.Encode(tree))
		return nil
	}

	filter := elementFilter{ShownOnly: shownOnly, Text: text, Classes: splitList(classStr)}
	elements := filter.apply(tree)
	if flat {
		return output.Print(output.DumpFlatResult{
			Serial:   serial,
			Window:   window,
			TS:       ts.Unix(),
			Elements: model.FlattenElements(elements),
		})
	}
	return output.Print(output.DumpResult{
		Serial:   serial,
		Window:   window,
		TS:       ts.Unix(),
		Elements: elements,
	})
}
