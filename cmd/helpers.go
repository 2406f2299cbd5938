package cmd

import (
	"fmt"

	"github.com/mj1618/droid-cli/internal/model"
)

// ElementInfo is a compact view description for command results.
type ElementInfo struct {
	Hash   string `yaml:"h"            json:"h"`
	Class  string `yaml:"cls"          json:"cls"`
	ID     string `yaml:"id,omitempty" json:"id,omitempty"`
	Text   string `yaml:"t,omitempty"  json:"t,omitempty"`
	Bounds [4]int `yaml:"b"            json:"b"`
}

// elementInfo converts a node to a compact ElementInfo.
func elementInfo(n *model.Node) *ElementInfo {
	abs := n.AbsoluteRect()
	return &ElementInfo{
		Hash:   n.HashCode,
		Class:  n.ShortClass(),
		ID:     n.ID,
		Text:   n.Text,
		Bounds: [4]int{abs.Left, abs.Top, abs.Width(), abs.Height()},
	}
}

// findView returns the first shown view matching id, or text when id is
// empty. Text matches as a substring unless exact is set.
func findView(t *model.Tree, id, text string, exact bool) (*model.Node, error) {
	if id != "" {
		if n := t.ByID(trimIDPrefix(id), "id"); n != nil {
			return n, nil
		}
		return nil, fmt.Errorf("no shown view with id/%s", trimIDPrefix(id))
	}
	if n := t.ByText(text, !exact); n != nil {
		return n, nil
	}
	return nil, fmt.Errorf("no shown view with text %q", text)
}

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		// YAML decodes bare numbers, e.g. key: 5
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

func intParam(params map[string]interface{}, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case int64:
			return int(n)
		}
	}
	return defaultVal
}

func boolParam(params map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}
