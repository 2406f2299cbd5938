// Package viewdump reads and writes the text format produced by the
// on-device view server's DUMP command.
//
// Each line of a dump describes one view:
//
//	<indent><class>@<hash> [<category>:]<name>=<length>,<value> ...
//
// The indent (one space per level) is the view's depth. Values are not
// escaped; length is the number of bytes in the value, except for mText
// where it counts characters, so a reader must decode the text to find
// the next property.
package viewdump

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/droid-cli/internal/model"
)

// ParseError reports a single dump line that could not be parsed. It is
// recoverable: Parse logs it and continues with the next line.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("viewdump: %s: %q", e.Reason, truncate(e.Line, 80))
}

// RawNode is one parsed dump line before it is placed in a tree.
type RawNode struct {
	ClassName string
	HashCode  string
	// Properties holds the decoded value of each recognised property,
	// keyed by name without category (e.g. "mText", "getWidth()").
	// Values are int, bool, string or model.Visibility.
	Properties map[string]any
}

type decoder func(string) (any, bool)

func decodeInt(v string) (any, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil, false
	}
	return n, true
}

func decodeBool(v string) (any, bool) { return v == "true", true }

func decodeText(v string) (any, bool) { return v, true }

func decodeVisibility(v string) (any, bool) {
	switch v {
	case "VISIBLE":
		return model.VisibilityVisible, true
	case "INVISIBLE":
		return model.VisibilityInvisible, true
	default:
		return model.VisibilityGone, true
	}
}

var decoders = map[string]decoder{
	"mID":                 decodeText,
	"mText":               decodeText,
	"mLeft":               decodeInt,
	"mRight":              decodeInt,
	"mTop":                decodeInt,
	"mBottom":             decodeInt,
	"getWidth()":          decodeInt,
	"getHeight()":         decodeInt,
	"mScrollX":            decodeInt,
	"mScrollY":            decodeInt,
	"mPaddingLeft":        decodeInt,
	"mPaddingRight":       decodeInt,
	"mPaddingTop":         decodeInt,
	"mPaddingBottom":      decodeInt,
	"layout_leftMargin":   decodeInt,
	"layout_rightMargin":  decodeInt,
	"layout_topMargin":    decodeInt,
	"layout_bottomMargin": decodeInt,
	"getBaseline()":       decodeInt,
	"willNotDraw()":       decodeBool,
	"hasFocus()":          decodeBool,
	"isClickable()":       decodeBool,
	"isEnabled()":         decodeBool,
	"getVisibility()":     decodeVisibility,
}

// ParseNode parses one dump line with its indent already removed.
func ParseNode(line string) (*RawNode, error) {
	header, rest, _ := strings.Cut(line, " ")
	class, hash, ok := strings.Cut(header, "@")
	if !ok || hash == "" {
		return nil, &ParseError{Line: line, Reason: "missing class@hash header"}
	}

	raw := &RawNode{
		ClassName:  class,
		HashCode:   hash,
		Properties: make(map[string]any),
	}

	for {
		name, after, ok := strings.Cut(rest, "=")
		if !ok || strings.TrimSpace(name) == "" {
			break
		}
		if _, n, found := strings.Cut(name, ":"); found && strings.TrimSpace(n) != "" {
			name = n
		}
		name = strings.TrimSpace(name)

		lenText, after, ok := strings.Cut(after, ",")
		if !ok {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("property %s has no length", name)}
		}
		length, err := strconv.Atoi(lenText)
		if err != nil || length < 0 {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("property %s has bad length %q", name, lenText)}
		}

		var value string
		if name == "mText" {
			value = takeChars(after, length)
		} else {
			value = after[:min(length, len(after))]
		}
		rest = after[len(value):]

		if dec, known := decoders[name]; known {
			if v, ok := dec(value); ok {
				raw.Properties[name] = v
			}
		}
	}
	return raw, nil
}

// takeChars returns the prefix of s holding n characters, or all of s if
// it is shorter. A character is at most four bytes, so at most 4n bytes
// are examined.
func takeChars(s string, n int) string {
	if n == 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Int returns an integer property, or 0 when absent.
func (r *RawNode) Int(name string) int {
	v, _ := r.Properties[name].(int)
	return v
}

// Bool returns a boolean property, or false when absent.
func (r *RawNode) Bool(name string) bool {
	v, _ := r.Properties[name].(bool)
	return v
}

// Text returns a text property, or "" when absent.
func (r *RawNode) Text(name string) string {
	v, _ := r.Properties[name].(string)
	return v
}

// Visibility returns getVisibility(), which is Gone when absent.
func (r *RawNode) Visibility() model.Visibility {
	v, _ := r.Properties["getVisibility()"].(model.Visibility)
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
