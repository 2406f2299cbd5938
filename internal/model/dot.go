package model

import "strings"

// DOT renders the parent/child edges of a tree as a graphviz digraph body.
func DOT(t *Tree) string {
	var b strings.Builder
	b.WriteString("digraph {\n")
	for _, n := range t.Nodes() {
		if n.Parent == nil {
			b.WriteString("  \"" + n.HashCode + "\";\n")
			continue
		}
		b.WriteString("  \"" + n.Parent.HashCode + "\" -> \"" + n.HashCode + "\";\n")
	}
	b.WriteString("}\n")
	return b.String()
}
