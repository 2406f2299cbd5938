package cmd

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mj1618/droid-cli/internal/model"
)

// LabelMode controls what text is drawn on each annotated view.
type LabelMode int

const (
	// LabelCoords draws "(x,y)" centre coordinates in device pixels.
	LabelCoords LabelMode = iota
	// LabelHashes draws "[hash]" view hash-codes.
	LabelHashes
)

// ParseLabelMode converts a --label value.
func ParseLabelMode(s string) (LabelMode, bool) {
	switch s {
	case "", "coords":
		return LabelCoords, true
	case "hash":
		return LabelHashes, true
	default:
		return LabelCoords, false
	}
}

var (
	boxColor     = color.RGBA{R: 255, G: 0, B: 0, A: 100}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// annotationTargets flattens elements, keeping shown views with a
// non-empty area. Unless all is set only clickable views are kept.
func annotationTargets(elements []model.Element, all bool) []model.Element {
	var out []model.Element
	var walk func([]model.Element)
	walk = func(els []model.Element) {
		for _, el := range els {
			if el.Shown && el.Bounds[2] > 0 && el.Bounds[3] > 0 && (all || el.Clickable) {
				out = append(out, el)
			}
			walk(el.Children)
		}
	}
	walk(elements)
	return out
}

// Annotate draws a box and label for each element. Element bounds are in
// device pixels, which match screencap pixels one to one.
func Annotate(img image.Image, elements []model.Element, mode LabelMode) *image.RGBA {
	rgba := ImageToRGBA(img)
	for _, el := range elements {
		x, y, w, h := el.Bounds[0], el.Bounds[1], el.Bounds[2], el.Bounds[3]
		drawRectangle(rgba, x, y, x+w, y+h, boxColor)
		drawTextWithOutline(rgba, label(el, mode), x+w/2, y+h/2, textColor, outlineColor)
	}
	return rgba
}

func label(el model.Element, mode LabelMode) string {
	if mode == LabelHashes {
		return "[" + el.Hash + "]"
	}
	cx := el.Bounds[0] + el.Bounds[2]/2
	cy := el.Bounds[1] + el.Bounds[3]/2
	return "(" + strconv.Itoa(cx) + "," + strconv.Itoa(cy) + ")"
}

// ImageToRGBA converts any image to RGBA
func ImageToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// Scale resizes img by factor. Factors of 1 or more return img unchanged.
func Scale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor >= 1 {
		return img
	}
	b := img.Bounds()
	w := max(int(float64(b.Dx())*factor), 1)
	h := max(int(float64(b.Dy())*factor), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// drawRectangle draws a rectangle outline clipped to the image.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	r := image.Rect(x1, y1, x2, y2).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// drawTextWithOutline draws text centred on (x, y) with a one pixel
// outline.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	// basicfont.Face7x13 glyphs are 7 pixels wide and 13 high.
	offsetX := x - len(text)*7/2
	offsetY := y + 13/2

	drawString := func(c color.Color, dx, dy int) {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(offsetX+dx, offsetY+dy),
		}
		d.DrawString(text)
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				drawString(outlineColor, dx, dy)
			}
		}
	}
	drawString(textColor, 0, 0)
}
