package viewdump

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func line(indent int, class, hash, vis string) string {
	return strings.Repeat(" ", indent) + class + "@" + hash +
		" getVisibility()=" + strconv.Itoa(len(vis)) + "," + vis + " "
}

func TestSplitLines(t *testing.T) {
	dump := "Root@1 \n Child@2 \r\n\n   \nDONE\nDONE.\n"
	lines := SplitLines(dump)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %+v", len(lines), lines)
	}
	if lines[1].Indent != 1 || lines[1].Text != "Child@2 " {
		t.Errorf("got %+v", lines[1])
	}
}

func TestParse_DepthSequence(t *testing.T) {
	// 0,1,2,1,0: the second depth-1 node belongs to the first root, not to
	// the depth-2 node before it.
	dump := line(0, "Root", "a", "VISIBLE") + "\n" +
		line(1, "Child", "b", "VISIBLE") + "\n" +
		line(2, "Grandchild", "c", "VISIBLE") + "\n" +
		line(1, "Child", "d", "VISIBLE") + "\n" +
		line(0, "Root", "e", "VISIBLE") + "\nDONE\n"

	tree, err := Parse(dump, nil)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Len() != 5 {
		t.Fatalf("got %d nodes, want 5", tree.Len())
	}
	if len(tree.Roots()) != 2 {
		t.Fatalf("got %d roots, want 2", len(tree.Roots()))
	}
	d := tree.ByHash("d")
	if d.Parent == nil || d.Parent.HashCode != "a" {
		t.Errorf("d parent: got %v, want a", d.Parent)
	}
	a := tree.ByHash("a")
	if len(a.Children) != 2 || a.Children[0].HashCode != "b" || a.Children[1].HashCode != "d" {
		t.Errorf("a children: got %v", a.Children)
	}
	if tree.ByHash("e").Parent != nil {
		t.Error("e should be a root")
	}
}

func TestParse_DepthMatchesParent(t *testing.T) {
	dump := line(0, "R", "1", "VISIBLE") + "\n" +
		line(1, "A", "2", "VISIBLE") + "\n" +
		line(2, "B", "3", "VISIBLE") + "\n" +
		line(3, "C", "4", "VISIBLE") + "\n" +
		line(1, "D", "5", "VISIBLE") + "\n" +
		line(2, "E", "6", "VISIBLE") + "\n" +
		line(2, "F", "7", "VISIBLE") + "\n"
	tree, err := Parse(dump, nil)
	if err != nil {
		t.Fatal(err)
	}
	wantDepth := map[string]int{"1": 0, "2": 1, "3": 2, "4": 3, "5": 1, "6": 2, "7": 2}
	for _, n := range tree.Nodes() {
		if n.Depth != wantDepth[n.HashCode] {
			t.Errorf("%s: depth %d, want %d", n.HashCode, n.Depth, wantDepth[n.HashCode])
		}
		if n.Parent != nil && n.Depth != n.Parent.Depth+1 {
			t.Errorf("%s: depth %d, parent depth %d", n.HashCode, n.Depth, n.Parent.Depth)
		}
	}
	if p := tree.ByHash("7").Parent; p.HashCode != "5" {
		t.Errorf("7 parent: got %s, want 5", p.HashCode)
	}
}

func TestParse_Shown(t *testing.T) {
	dump := line(0, "R", "1", "VISIBLE") + "\n" +
		line(1, "A", "2", "INVISIBLE") + "\n" +
		line(2, "B", "3", "VISIBLE") + "\n" +
		line(1, "C", "4", "VISIBLE") + "\n" +
		line(2, "D", "5", "GONE") + "\n" +
		line(2, "E", "6", "VISIBLE") + "\n"
	tree, err := Parse(dump, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"1": true, "2": false, "3": false, "4": true, "5": false, "6": true}
	for hash, shown := range want {
		if got := tree.ByHash(hash).Shown; got != shown {
			t.Errorf("%s: shown %v, want %v", hash, got, shown)
		}
	}
}

func TestParse_SkipsBadHeader(t *testing.T) {
	dump := line(0, "R", "1", "VISIBLE") + "\n" +
		" BrokenHeader mID=2,id\n" +
		line(1, "A", "2", "VISIBLE") + "\n"
	tree, err := Parse(dump, nil)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Len() != 2 {
		t.Fatalf("got %d nodes, want 2", tree.Len())
	}
	if tree.ByHash("2").Parent.HashCode != "1" {
		t.Error("node after the bad line should still attach to the root")
	}
}

func TestParse_SkipsSubtreeOfBadHeader(t *testing.T) {
	dump := line(0, "R", "1", "VISIBLE") + "\n" +
		" Broken\n" +
		line(2, "Orphan", "2", "VISIBLE") + "\n" +
		line(1, "A", "3", "VISIBLE") + "\n"
	tree, err := Parse(dump, nil)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Len() != 2 || tree.ByHash("2") != nil {
		t.Errorf("orphaned child should be skipped, got %d nodes", tree.Len())
	}
}

func TestBuild_StructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		indents []int
		index   int
	}{
		{"jump by two", []int{0, 2}, 1},
		{"first not root", []int{1}, 0},
		{"jump after siblings", []int{0, 1, 1, 3}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var recs []Record
			for i, ind := range tt.indents {
				recs = append(recs, Record{Indent: ind, Node: &RawNode{ClassName: "V", HashCode: strconv.Itoa(i)}})
			}
			_, err := Build(recs)
			var se *StructuralError
			if !errors.As(err, &se) {
				t.Fatalf("got %v, want *StructuralError", err)
			}
			if se.Index != tt.index {
				t.Errorf("index: got %d, want %d", se.Index, tt.index)
			}
		})
	}
}

func TestBuild_Empty(t *testing.T) {
	tree, err := Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Len() != 0 || tree.Root() != nil {
		t.Error("expected empty tree")
	}
}
