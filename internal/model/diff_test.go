package model

import "testing"

func TestDiffElements_NoChanges(t *testing.T) {
	elements := []FlatElement{
		{Hash: "1", Class: "android.widget.Button", Text: "OK", Bounds: [4]int{10, 20, 100, 30}, Path: "Button"},
	}
	changes := DiffElements(elements, elements)
	if len(changes) != 0 {
		t.Errorf("expected no changes, got %d", len(changes))
	}
}

func TestDiffElements_Added(t *testing.T) {
	prev := []FlatElement{
		{Hash: "1", Class: "android.widget.Button", Text: "OK"},
	}
	curr := []FlatElement{
		{Hash: "1", Class: "android.widget.Button", Text: "OK"},
		{Hash: "2", Class: "android.widget.Button", Text: "Cancel"},
	}
	changes := DiffElements(prev, curr)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Type != ChangeAdded {
		t.Errorf("expected added, got %s", changes[0].Type)
	}
	if changes[0].Element.Text != "Cancel" {
		t.Errorf("expected Cancel, got %s", changes[0].Element.Text)
	}
}

func TestDiffElements_Removed(t *testing.T) {
	prev := []FlatElement{
		{Hash: "1", Class: "android.widget.Button", Text: "OK"},
		{Hash: "2", Class: "android.widget.ProgressBar", Text: "Loading..."},
	}
	curr := []FlatElement{
		{Hash: "1", Class: "android.widget.Button", Text: "OK"},
	}
	changes := DiffElements(prev, curr)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Type != ChangeRemoved {
		t.Errorf("expected removed, got %s", changes[0].Type)
	}
	if changes[0].Hash != "2" {
		t.Errorf("expected hash 2, got %s", changes[0].Hash)
	}
}

func TestDiffElements_Changed(t *testing.T) {
	prev := []FlatElement{
		{Hash: "1", Class: "android.widget.EditText", Text: "", Shown: true},
	}
	curr := []FlatElement{
		{Hash: "1", Class: "android.widget.EditText", Text: "hello", Shown: false},
	}
	changes := DiffElements(prev, curr)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Type != ChangeChanged {
		t.Errorf("expected changed, got %s", changes[0].Type)
	}
	if got := changes[0].Changes["t"]; got != [2]string{"", "hello"} {
		t.Errorf("text diff: got %v", got)
	}
	if got := changes[0].Changes["s"]; got != [2]string{"true", "false"} {
		t.Errorf("shown diff: got %v", got)
	}
}

func TestElementHash_IgnoresDeviceHash(t *testing.T) {
	a := FlatElement{Hash: "1", Class: "android.widget.Button", ID: "id/ok", Path: "Frame > Button"}
	b := FlatElement{Hash: "ff", Class: "android.widget.Button", ID: "id/ok", Path: "Frame > Button"}
	if ElementHash(a) != ElementHash(b) {
		t.Error("content hash should not depend on the device hash-code")
	}
	c := b
	c.Path = "Frame > Layout > Button"
	if ElementHash(b) == ElementHash(c) {
		t.Error("different paths should produce different hashes")
	}
}

func TestDiffByContent(t *testing.T) {
	prev := []FlatElement{
		{Hash: "1", Class: "android.widget.TextView", ID: "id/title", Text: "Inbox", Path: "Frame > TextView"},
		{Hash: "2", Class: "android.widget.Button", ID: "id/old", Path: "Frame > Button"},
		{Hash: "3", Class: "android.widget.Button", ID: "id/same", Path: "Frame > Button"},
	}
	curr := []FlatElement{
		{Hash: "a", Class: "android.widget.TextView", ID: "id/title", Text: "Sent", Path: "Frame > TextView"},
		{Hash: "c", Class: "android.widget.Button", ID: "id/same", Path: "Frame > Button"},
		{Hash: "d", Class: "android.widget.Button", ID: "id/new", Path: "Frame > Button"},
	}
	diff := DiffByContent(prev, curr)
	if len(diff.Added) != 1 || diff.Added[0].ID != "id/new" {
		t.Errorf("added: got %+v", diff.Added)
	}
	if len(diff.Removed) != 1 || diff.Removed[0].ID != "id/old" {
		t.Errorf("removed: got %+v", diff.Removed)
	}
	if len(diff.Changed) != 1 || diff.Changed[0].Changes["t"] != [2]string{"Inbox", "Sent"} {
		t.Errorf("changed: got %+v", diff.Changed)
	}
	if diff.UnchangedCount != 1 {
		t.Errorf("unchanged: got %d, want 1", diff.UnchangedCount)
	}
}
