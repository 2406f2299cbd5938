package model

import (
	"strings"
)

// Rect is a bounding box in device pixels. Node rects are relative to the
// parent; AbsoluteRect converts to screen coordinates.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Width returns Right-Left.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns Bottom-Top.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Center returns the integer midpoint of the rect.
func (r Rect) Center() (x, y int) {
	return (r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2
}

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Visibility is the device-reported visibility of a view.
type Visibility int

const (
	// VisibilityGone is also the value when the dump omits the property.
	VisibilityGone Visibility = iota
	VisibilityInvisible
	VisibilityVisible
)

// String returns the device spelling of the visibility.
func (v Visibility) String() string {
	switch v {
	case VisibilityVisible:
		return "VISIBLE"
	case VisibilityInvisible:
		return "INVISIBLE"
	default:
		return "GONE"
	}
}

// Node is one UI element in a dump snapshot. Nodes are created by
// viewdump.Build and must be treated as read-only afterwards; a refresh
// produces a new tree rather than mutating an old one.
type Node struct {
	ClassName string
	// HashCode is the device identity token as printed in the dump (hex).
	// It is only unique within one snapshot.
	HashCode string
	ID       string
	Text     string

	// Rect is relative to the parent's content origin.
	Rect             Rect
	ScrollX, ScrollY int

	Visibility Visibility
	Clickable  bool
	Enabled    bool
	Focused    bool

	Baseline int
	Width    int
	Height   int

	Depth int
	// Shown is true when this node and every ancestor are visible.
	Shown bool

	// Parent is a lookup edge only; ownership flows through Children.
	Parent   *Node
	Children []*Node
}

// Visible reports the node's own visibility flag.
func (n *Node) Visible() bool { return n.Visibility == VisibilityVisible }

// AbsoluteRect returns the node's bounds in screen coordinates by adding
// each ancestor's offset minus its scroll position.
func (n *Node) AbsoluteRect() Rect {
	left, top := n.Rect.Left, n.Rect.Top
	for p := n.Parent; p != nil; p = p.Parent {
		left += p.Rect.Left - p.ScrollX
		top += p.Rect.Top - p.ScrollY
	}
	return Rect{
		Left:   left,
		Top:    top,
		Right:  left + n.Rect.Width(),
		Bottom: top + n.Rect.Height(),
	}
}

// Center returns the screen coordinates of the node's centre, suitable for
// a tap.
func (n *Node) Center() (x, y int) {
	return n.AbsoluteRect().Center()
}

// Descendants returns every node below n in depth-first pre-order.
func (n *Node) Descendants() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.Children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(n)
	return out
}

// ChildrenByID returns descendants whose ID is "id/<id>".
func (n *Node) ChildrenByID(id string) []*Node {
	want := "id/" + id
	var out []*Node
	for _, d := range n.Descendants() {
		if d.ID == want {
			out = append(out, d)
		}
	}
	return out
}

// ShortClass returns the class name without its package.
func (n *Node) ShortClass() string {
	if i := strings.LastIndexByte(n.ClassName, '.'); i >= 0 {
		return n.ClassName[i+1:]
	}
	return n.ClassName
}

func (n *Node) String() string {
	return n.ID + " " + n.ClassName
}

// Tree is one dump snapshot: nodes in depth-first pre-order (dump order).
type Tree struct {
	nodes []*Node
	roots []*Node
}

// NewTree wraps nodes that are already linked and in pre-order.
func NewTree(nodes []*Node) *Tree {
	t := &Tree{nodes: nodes}
	for _, n := range nodes {
		if n.Parent == nil {
			t.roots = append(t.roots, n)
		}
	}
	return t
}

// Nodes returns all nodes in dump order.
func (t *Tree) Nodes() []*Node { return t.nodes }

// Roots returns the depth-0 nodes in dump order.
func (t *Tree) Roots() []*Node { return t.roots }

// Root returns the first root, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if len(t.roots) == 0 {
		return nil
	}
	return t.roots[0]
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// ByHash returns the node with the given hash-code.
func (t *Tree) ByHash(hash string) *Node {
	return t.Find(func(n *Node) bool { return n.HashCode == hash })
}

// Find returns the first node in dump order matching pred.
func (t *Tree) Find(pred func(*Node) bool) *Node {
	for _, n := range t.nodes {
		if pred(n) {
			return n
		}
	}
	return nil
}

// FindAll returns every node matching pred in dump order.
func (t *Tree) FindAll(pred func(*Node) bool) []*Node {
	var out []*Node
	for _, n := range t.nodes {
		if pred(n) {
			out = append(out, n)
		}
	}
	return out
}

// ByID returns the first shown node whose ID is "<prefix>/<ident>".
func (t *Tree) ByID(ident, prefix string) *Node {
	want := prefix + "/" + ident
	return t.Find(func(n *Node) bool { return n.Shown && n.ID == want })
}

// ByText returns the first shown node whose text contains text (partial)
// or equals it.
func (t *Tree) ByText(text string, partial bool) *Node {
	return t.Find(func(n *Node) bool {
		if !n.Shown {
			return false
		}
		if partial {
			return strings.Contains(n.Text, text)
		}
		return n.Text == text
	})
}

// HasClass reports whether any node has exactly the given class name.
func (t *Tree) HasClass(className string) bool {
	return t.Find(func(n *Node) bool { return n.ClassName == className }) != nil
}
