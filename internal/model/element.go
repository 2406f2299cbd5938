package model

// Element is the serialized form of a Node, with compact keys.
type Element struct {
	Hash      string    `yaml:"h"            json:"h"`            // Device hash-code
	Class     string    `yaml:"cls"          json:"cls"`          // Fully qualified class name
	ID        string    `yaml:"id,omitempty" json:"id,omitempty"` // Resource id, e.g. "id/title"
	Text      string    `yaml:"t,omitempty"  json:"t,omitempty"`  // Text content
	Bounds    [4]int    `yaml:"b"            json:"b"`            // Absolute [x, y, width, height]
	Shown     bool      `yaml:"s,omitempty"  json:"s,omitempty"`  // Visible with all ancestors
	Clickable bool      `yaml:"k,omitempty"  json:"k,omitempty"`  // Accepts clicks
	Focused   bool      `yaml:"f,omitempty"  json:"f,omitempty"`  // Has focus
	Enabled   *bool     `yaml:"e,omitempty"  json:"e,omitempty"`  // nil = enabled (omit); false = disabled
	Children  []Element `yaml:"c,omitempty"  json:"c,omitempty"`  // Child elements
}

// NewElement converts n and its subtree.
func NewElement(n *Node) Element {
	abs := n.AbsoluteRect()
	el := Element{
		Hash:      n.HashCode,
		Class:     n.ClassName,
		ID:        n.ID,
		Text:      n.Text,
		Bounds:    [4]int{abs.Left, abs.Top, abs.Width(), abs.Height()},
		Shown:     n.Shown,
		Clickable: n.Clickable,
		Focused:   n.Focused,
	}
	if !n.Enabled {
		disabled := false
		el.Enabled = &disabled
	}
	for _, c := range n.Children {
		el.Children = append(el.Children, NewElement(c))
	}
	return el
}

// Elements converts every root of the tree.
func Elements(t *Tree) []Element {
	out := make([]Element, 0, len(t.Roots()))
	for _, r := range t.Roots() {
		out = append(out, NewElement(r))
	}
	return out
}
