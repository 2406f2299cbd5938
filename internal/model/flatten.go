package model

import "strings"

// FlatElement is an element with a path breadcrumb instead of children.
type FlatElement struct {
	Hash      string `yaml:"h"            json:"h"`
	Class     string `yaml:"cls"          json:"cls"`
	ID        string `yaml:"id,omitempty" json:"id,omitempty"`
	Text      string `yaml:"t,omitempty"  json:"t,omitempty"`
	Bounds    [4]int `yaml:"b"            json:"b"`
	Shown     bool   `yaml:"s,omitempty"  json:"s,omitempty"`
	Clickable bool   `yaml:"k,omitempty"  json:"k,omitempty"`
	Focused   bool   `yaml:"f,omitempty"  json:"f,omitempty"`
	Enabled   *bool  `yaml:"e,omitempty"  json:"e,omitempty"`
	Depth     int    `yaml:"d"            json:"d"`
	Path      string `yaml:"p,omitempty"  json:"p,omitempty"`
}

// FlattenElements converts a tree of elements into a flat list.
// Each element gets a path string showing its location in the tree
// using short class names joined with " > ".
func FlattenElements(elements []Element) []FlatElement {
	var result []FlatElement
	for _, el := range elements {
		flattenRecursive(el, "", 0, &result)
	}
	return result
}

func flattenRecursive(el Element, parentPath string, depth int, result *[]FlatElement) {
	currentPath := shortClass(el.Class)
	if parentPath != "" {
		currentPath = parentPath + " > " + currentPath
	}

	flat := FlatElement{
		Hash:      el.Hash,
		Class:     el.Class,
		ID:        el.ID,
		Text:      el.Text,
		Bounds:    el.Bounds,
		Shown:     el.Shown,
		Clickable: el.Clickable,
		Focused:   el.Focused,
		Enabled:   el.Enabled,
		Depth:     depth,
		Path:      currentPath,
	}
	*result = append(*result, flat)

	for _, child := range el.Children {
		flattenRecursive(child, currentPath, depth+1, result)
	}
}

func shortClass(className string) string {
	if i := strings.LastIndexByte(className, '.'); i >= 0 {
		return className[i+1:]
	}
	return className
}
