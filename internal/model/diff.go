package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// ChangeType represents the kind of UI change detected.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeChanged ChangeType = "changed"
)

// UIChange represents a single change between two dumps.
type UIChange struct {
	Type    ChangeType           `json:"type"`
	TS      int64                `json:"ts"`
	Element *FlatElement         `json:"el,omitempty"`      // For added: the full element
	Path    string               `json:"p,omitempty"`       // For added: path in tree
	Hash    string               `json:"h,omitempty"`       // For removed/changed: hash-code
	Class   string               `json:"cls,omitempty"`     // For removed: class name
	Text    string               `json:"t,omitempty"`       // For removed: text
	Changes map[string][2]string `json:"changes,omitempty"` // For changed: field diffs
}

// DiffElements compares two flat element lists from consecutive dumps of
// the same process. Elements are matched by device hash-code, which stays
// stable while the view object lives.
func DiffElements(prev, curr []FlatElement) []UIChange {
	prevMap := make(map[string]FlatElement, len(prev))
	for _, el := range prev {
		prevMap[el.Hash] = el
	}
	currMap := make(map[string]FlatElement, len(curr))
	for _, el := range curr {
		currMap[el.Hash] = el
	}

	var changes []UIChange
	now := time.Now().Unix()

	for _, el := range curr {
		prevEl, existed := prevMap[el.Hash]
		if !existed {
			elCopy := el
			changes = append(changes, UIChange{
				Type:    ChangeAdded,
				TS:      now,
				Element: &elCopy,
				Path:    el.Path,
			})
			continue
		}
		if diffs := diffProperties(prevEl, el); len(diffs) > 0 {
			changes = append(changes, UIChange{
				Type:    ChangeChanged,
				TS:      now,
				Hash:    el.Hash,
				Changes: diffs,
			})
		}
	}

	for _, el := range prev {
		if _, exists := currMap[el.Hash]; !exists {
			changes = append(changes, UIChange{
				Type:  ChangeRemoved,
				TS:    now,
				Hash:  el.Hash,
				Class: el.Class,
				Text:  el.Text,
			})
		}
	}

	return changes
}

// HashChange represents a changed element detected by content diffing.
type HashChange struct {
	Hash    string               `yaml:"h"           json:"h"`
	Class   string               `yaml:"cls"         json:"cls"`
	ID      string               `yaml:"id,omitempty" json:"id,omitempty"`
	Changes map[string][2]string `yaml:"changes"     json:"changes"`
}

// TreeDiff is the result of comparing two snapshots by content hash.
type TreeDiff struct {
	Added          []FlatElement `yaml:"added,omitempty"   json:"added,omitempty"`
	Removed        []FlatElement `yaml:"removed,omitempty" json:"removed,omitempty"`
	Changed        []HashChange  `yaml:"changed,omitempty" json:"changed,omitempty"`
	UnchangedCount int           `yaml:"unchanged_count"   json:"unchanged_count"`
}

// ElementHash computes an identity for an element from its class, id and
// position in the tree. Unlike the device hash-code it survives an app
// restart, so archived snapshots from different runs can be compared.
func ElementHash(el FlatElement) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s", el.Class, el.ID, el.Path)
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// DiffByContent compares two flat element lists using ElementHash for
// identity. Siblings with the same class, id and path collapse onto one
// key; the last one wins.
func DiffByContent(prev, curr []FlatElement) TreeDiff {
	prevByHash := make(map[string]FlatElement, len(prev))
	for _, el := range prev {
		prevByHash[ElementHash(el)] = el
	}
	currByHash := make(map[string]FlatElement, len(curr))
	for _, el := range curr {
		currByHash[ElementHash(el)] = el
	}

	var diff TreeDiff
	for _, el := range curr {
		prevEl, existed := prevByHash[ElementHash(el)]
		if !existed {
			diff.Added = append(diff.Added, el)
			continue
		}
		if changes := diffProperties(prevEl, el); len(changes) > 0 {
			diff.Changed = append(diff.Changed, HashChange{
				Hash:    el.Hash,
				Class:   el.Class,
				ID:      el.ID,
				Changes: changes,
			})
		} else {
			diff.UnchangedCount++
		}
	}

	for _, el := range prev {
		if _, exists := currByHash[ElementHash(el)]; !exists {
			diff.Removed = append(diff.Removed, el)
		}
	}

	return diff
}

// diffProperties compares the mutable properties of two matched elements.
func diffProperties(prev, curr FlatElement) map[string][2]string {
	diffs := make(map[string][2]string)

	if prev.Text != curr.Text {
		diffs["t"] = [2]string{prev.Text, curr.Text}
	}
	if prev.ID != curr.ID {
		diffs["id"] = [2]string{prev.ID, curr.ID}
	}
	if prev.Bounds != curr.Bounds {
		diffs["b"] = [2]string{
			fmt.Sprintf("%v", prev.Bounds),
			fmt.Sprintf("%v", curr.Bounds),
		}
	}
	if prev.Shown != curr.Shown {
		diffs["s"] = [2]string{
			fmt.Sprintf("%v", prev.Shown),
			fmt.Sprintf("%v", curr.Shown),
		}
	}
	if prev.Clickable != curr.Clickable {
		diffs["k"] = [2]string{
			fmt.Sprintf("%v", prev.Clickable),
			fmt.Sprintf("%v", curr.Clickable),
		}
	}
	if prev.Focused != curr.Focused {
		diffs["f"] = [2]string{
			fmt.Sprintf("%v", prev.Focused),
			fmt.Sprintf("%v", curr.Focused),
		}
	}

	if len(diffs) == 0 {
		return nil
	}
	return diffs
}
