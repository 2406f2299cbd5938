package viewdump

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mj1618/droid-cli/internal/model"
)

// StructuralError reports a depth sequence that cannot come from a
// depth-first walk, which means the dump is corrupt or truncated.
type StructuralError struct {
	Index     int // position of the offending record
	Depth     int
	PrevDepth int // -1 when there is no previous record
}

func (e *StructuralError) Error() string {
	if e.PrevDepth < 0 {
		return fmt.Sprintf("viewdump: record %d: first record has depth %d, want 0", e.Index, e.Depth)
	}
	return fmt.Sprintf("viewdump: record %d: depth jumps from %d to %d", e.Index, e.PrevDepth, e.Depth)
}

// Line is one non-empty dump line with its indent counted and removed.
type Line struct {
	Indent int
	Text   string
}

// Record is a parsed line ready for Build.
type Record struct {
	Indent int
	Node   *RawNode
}

// SplitLines breaks a dump into lines, dropping blank lines and the
// DONE / DONE. terminators.
func SplitLines(dump string) []Line {
	var out []Line
	for _, l := range strings.Split(dump, "\n") {
		l = strings.TrimRight(l, "\r")
		if l == "DONE" || l == "DONE." {
			continue
		}
		text := strings.TrimLeft(l, " ")
		if text == "" {
			continue
		}
		out = append(out, Line{Indent: len(l) - len(text), Text: text})
	}
	return out
}

// Build links records, given in dump order, into a tree. Each record's
// indent is its depth.
func Build(records []Record) (*model.Tree, error) {
	nodes := make([]*model.Node, 0, len(records))
	var prev *model.Node

	for i, rec := range records {
		n := newNode(rec.Node, rec.Indent)

		switch {
		case n.Depth == 0:
		case prev == nil:
			return nil, &StructuralError{Index: i, Depth: n.Depth, PrevDepth: -1}
		case n.Depth == prev.Depth+1:
			n.Parent = prev
		case n.Depth == prev.Depth:
			n.Parent = prev.Parent
		case n.Depth < prev.Depth:
			// The most recent node at this depth is prev's ancestor.
			sibling := prev
			for sibling.Depth > n.Depth {
				sibling = sibling.Parent
			}
			n.Parent = sibling.Parent
		default:
			return nil, &StructuralError{Index: i, Depth: n.Depth, PrevDepth: prev.Depth}
		}

		if n.Parent != nil {
			n.Parent.Children = append(n.Parent.Children, n)
		}
		n.Shown = n.Visible() && (n.Parent == nil || n.Parent.Shown)

		nodes = append(nodes, n)
		prev = n
	}
	return model.NewTree(nodes), nil
}

func newNode(raw *RawNode, depth int) *model.Node {
	return &model.Node{
		ClassName: raw.ClassName,
		HashCode:  raw.HashCode,
		ID:        raw.Text("mID"),
		Text:      raw.Text("mText"),
		Rect: model.Rect{
			Left:   raw.Int("mLeft"),
			Top:    raw.Int("mTop"),
			Right:  raw.Int("mRight"),
			Bottom: raw.Int("mBottom"),
		},
		ScrollX:    raw.Int("mScrollX"),
		ScrollY:    raw.Int("mScrollY"),
		Visibility: raw.Visibility(),
		Clickable:  raw.Bool("isClickable()"),
		Enabled:    raw.Bool("isEnabled()"),
		Focused:    raw.Bool("hasFocus()"),
		Baseline:   raw.Int("getBaseline()"),
		Width:      raw.Int("getWidth()"),
		Height:     raw.Int("getHeight()"),
		Depth:      depth,
	}
}

// Parse splits, parses and builds a full dump. Lines that fail to parse
// are logged and skipped together with their subtree; a StructuralError
// aborts the build.
func Parse(dump string, logger *slog.Logger) (*model.Tree, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	lines := SplitLines(dump)
	records := make([]Record, 0, len(lines))
	skipBelow := -1
	for _, l := range lines {
		if skipBelow >= 0 {
			if l.Indent > skipBelow {
				logger.Debug("skipping child of unparsable view", "depth", l.Indent)
				continue
			}
			skipBelow = -1
		}
		raw, err := ParseNode(l.Text)
		if err != nil {
			logger.Warn("skipping dump line", "depth", l.Indent, "error", err)
			skipBelow = l.Indent
			continue
		}
		records = append(records, Record{Indent: l.Indent, Node: raw})
	}
	return Build(records)
}
