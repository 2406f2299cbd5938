package viewdump

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mj1618/droid-cli/internal/model"
)

// Encode writes a tree back out in dump format, terminated by "DONE.".
// Parsing the result yields a tree of the same shape and properties.
func Encode(t *model.Tree) string {
	var b strings.Builder
	for _, n := range t.Nodes() {
		b.WriteString(strings.Repeat(" ", n.Depth))
		b.WriteString(n.ClassName)
		b.WriteByte('@')
		b.WriteString(n.HashCode)
		b.WriteByte(' ')

		writeProp(&b, "mID", n.ID)
		writeText(&b, "text:mText", n.Text)
		writeProp(&b, "layout:mLeft", strconv.Itoa(n.Rect.Left))
		writeProp(&b, "layout:mTop", strconv.Itoa(n.Rect.Top))
		writeProp(&b, "layout:mRight", strconv.Itoa(n.Rect.Right))
		writeProp(&b, "layout:mBottom", strconv.Itoa(n.Rect.Bottom))
		writeProp(&b, "layout:getWidth()", strconv.Itoa(n.Width))
		writeProp(&b, "layout:getHeight()", strconv.Itoa(n.Height))
		writeProp(&b, "layout:getBaseline()", strconv.Itoa(n.Baseline))
		writeProp(&b, "scrolling:mScrollX", strconv.Itoa(n.ScrollX))
		writeProp(&b, "scrolling:mScrollY", strconv.Itoa(n.ScrollY))
		writeProp(&b, "misc:getVisibility()", n.Visibility.String())
		writeProp(&b, "isClickable()", strconv.FormatBool(n.Clickable))
		writeProp(&b, "isEnabled()", strconv.FormatBool(n.Enabled))
		writeProp(&b, "focus:hasFocus()", strconv.FormatBool(n.Focused))
		b.WriteByte('\n')
	}
	b.WriteString("DONE.\n")
	return b.String()
}

func writeProp(b *strings.Builder, name, value string) {
	writeLengthPrefixed(b, name, len(value), value)
}

// writeText writes a text property, whose length counts characters.
func writeText(b *strings.Builder, name, value string) {
	writeLengthPrefixed(b, name, utf8.RuneCountInString(value), value)
}

func writeLengthPrefixed(b *strings.Builder, name string, length int, value string) {
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(strconv.Itoa(length))
	b.WriteByte(',')
	b.WriteString(value)
	b.WriteByte(' ')
}
