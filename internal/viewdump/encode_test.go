package viewdump

import (
	"strings"
	"testing"

	"github.com/mj1618/droid-cli/internal/model"
)

const sampleDump = `com.android.internal.policy.DecorView@a1 mID=5,NO_ID layout:mLeft=1,0 layout:mTop=1,0 layout:mRight=3,480 layout:mBottom=3,800 misc:getVisibility()=7,VISIBLE isEnabled()=4,true 
 android.widget.LinearLayout@b2 mID=10,id/content layout:mTop=2,50 layout:mRight=3,480 layout:mBottom=3,800 scrolling:mScrollY=2,10 misc:getVisibility()=7,VISIBLE isEnabled()=4,true 
  android.widget.TextView@c3 mID=8,id/title text:mText=5,Héllo layout:mLeft=2,10 layout:mRight=3,200 layout:mBottom=2,40 misc:getVisibility()=7,VISIBLE isEnabled()=4,true 
  android.widget.Button@d4 mID=5,id/ok text:mText=2,OK layout:mTop=2,60 layout:mRight=3,100 layout:mBottom=3,100 misc:getVisibility()=9,INVISIBLE isClickable()=4,true isEnabled()=5,false focus:hasFocus()=4,true 
 android.widget.FrameLayout@e5 mID=5,NO_ID misc:getVisibility()=4,GONE 
DONE.
`

func TestEncode_RoundTrip(t *testing.T) {
	orig, err := Parse(sampleDump, nil)
	if err != nil {
		t.Fatal(err)
	}
	encoded := Encode(orig)
	if !strings.HasSuffix(encoded, "DONE.\n") {
		t.Errorf("missing terminator: %q", encoded[len(encoded)-10:])
	}
	again, err := Parse(encoded, nil)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if orig.Len() != again.Len() {
		t.Fatalf("len: got %d, want %d", again.Len(), orig.Len())
	}
	for i, a := range orig.Nodes() {
		b := again.Nodes()[i]
		if !sameNode(a, b) {
			t.Errorf("node %d differs:\n got %+v\nwant %+v", i, *b, *a)
		}
	}
}

func sameNode(a, b *model.Node) bool {
	if a.ClassName != b.ClassName || a.HashCode != b.HashCode || a.ID != b.ID || a.Text != b.Text {
		return false
	}
	if a.Rect != b.Rect || a.ScrollX != b.ScrollX || a.ScrollY != b.ScrollY {
		return false
	}
	if a.Visibility != b.Visibility || a.Clickable != b.Clickable || a.Enabled != b.Enabled || a.Focused != b.Focused {
		return false
	}
	if a.Depth != b.Depth || a.Shown != b.Shown || len(a.Children) != len(b.Children) {
		return false
	}
	if (a.Parent == nil) != (b.Parent == nil) {
		return false
	}
	return a.Parent == nil || a.Parent.HashCode == b.Parent.HashCode
}

func TestEncode_CharacterLengths(t *testing.T) {
	n := &model.Node{ClassName: "V", HashCode: "1", Text: "日本語", Visibility: model.VisibilityVisible}
	out := Encode(model.NewTree([]*model.Node{n}))
	if !strings.Contains(out, "text:mText=3,日本語 ") {
		t.Errorf("got %q", out)
	}
}

func TestEncode_ByteLengthsOutsideText(t *testing.T) {
	n := &model.Node{ClassName: "V", HashCode: "1", ID: "id/é", Text: "é", Visibility: model.VisibilityVisible}
	out := Encode(model.NewTree([]*model.Node{n}))
	if !strings.Contains(out, "mID=5,id/é ") || !strings.Contains(out, "text:mText=1,é ") {
		t.Errorf("got %q", out)
	}
	again, err := Parse(out, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := again.Nodes()[0]; got.ID != "id/é" || got.Text != "é" {
		t.Errorf("got id %q text %q", got.ID, got.Text)
	}
}

func TestParse_SampleGeometry(t *testing.T) {
	tree, err := Parse(sampleDump, nil)
	if err != nil {
		t.Fatal(err)
	}
	title := tree.ByID("title", "id")
	if title == nil {
		t.Fatal("title not found")
	}
	// top: 0 + (50 - 10) + 0
	if got := title.AbsoluteRect(); got != (model.Rect{Left: 10, Top: 40, Right: 200, Bottom: 80}) {
		t.Errorf("abs rect: got %+v", got)
	}
	if tree.ByID("ok", "id") != nil {
		t.Error("invisible button should not be found by ByID")
	}
	ok := tree.ByHash("d4")
	if !ok.Clickable || ok.Enabled || !ok.Focused {
		t.Errorf("flags: %+v", *ok)
	}
}
