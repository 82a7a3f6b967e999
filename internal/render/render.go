// Package render draws the overlay feedback: key highlighting, the readout of
// recent keystrokes, and the blinking text cursor.
package render

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/phinze/vkeybd/internal/layout"
)

// Common colors
var (
	ColorText       = colornames.Black
	ColorGlyph      = color.RGBA{0x8f, 0x8f, 0x8f, 0xff}
	ColorBackground = colornames.White
	colorShadow     = color.NRGBA{0, 0, 0, 150}
)

// Glyphs frame a key label in the readout.
type Glyphs struct {
	Open, Close string
}

// Readout framing per key transition.
var (
	GlyphsDefault  = Glyphs{Open: "[", Close: "]"}
	GlyphsPressed  = Glyphs{Open: "v", Close: "v"}
	GlyphsReleased = Glyphs{Open: "^", Close: "^"}
)

// Renderer owns the overlay canvas. The canvas covers the overlay placement
// in screen coordinates; key and display rectangles are overlay-local and
// are offset by the placement origin.
type Renderer struct {
	canvas     *image.RGBA
	source     image.Image
	background image.Image
	origin     image.Point
	display    image.Rectangle

	face   font.Face
	ascent int
	glyphH int
	cursor image.Point
}

// LoadFace loads a TrueType or OpenType font for the readout.
func LoadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}

	tt, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(tt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	return face, nil
}

// New composes source over background at origin and places the cursor at
// the start of the display rectangle, vertically centered. The readout uses
// the 7x13 fixed font.
//
// source is the keyboard image with its origin at (0,0); background is the
// screen content under the overlay, in screen coordinates.
func New(source, background image.Image, origin image.Point, display image.Rectangle) *Renderer {
	return NewWithFace(source, background, origin, display, basicfont.Face7x13)
}

// NewWithFace is like New but draws the readout with face.
func NewWithFace(source, background image.Image, origin image.Point, display image.Rectangle, face font.Face) *Renderer {
	bounds := source.Bounds().Sub(source.Bounds().Min).Add(origin)
	metrics := face.Metrics()

	r := &Renderer{
		canvas:     image.NewRGBA(bounds),
		source:     source,
		background: background,
		origin:     origin,
		display:    display.Add(origin),
		face:       face,
		ascent:     metrics.Ascent.Ceil(),
		glyphH:     metrics.Height.Ceil(),
	}
	r.restore(bounds)

	r.cursor = image.Pt(
		r.display.Min.X,
		r.display.Min.Y+r.display.Dy()/2-r.glyphH/2,
	)
	return r
}

// Canvas returns the overlay image in screen coordinates.
func (r *Renderer) Canvas() *image.RGBA {
	return r.canvas
}

// Cursor returns the top-left corner of the next readout glyph.
func (r *Renderer) Cursor() image.Point {
	return r.cursor
}

// GlyphHeight returns the readout line height.
func (r *Renderer) GlyphHeight() int {
	return r.glyphH
}

// TextWidth returns the width of text in the readout font.
func (r *Renderer) TextWidth(text string) int {
	return font.MeasureString(r.face, text).Ceil()
}

// HighlightPressed darkens a key to show it held down.
func (r *Renderer) HighlightPressed(k layout.Key) {
	rect := k.Rect.Add(r.origin)
	draw.Draw(r.canvas, rect, image.NewUniform(colorShadow), image.Point{}, draw.Over)
}

// HighlightReleased redraws a key as it was first shown.
func (r *Renderer) HighlightReleased(k layout.Key) {
	r.restore(k.Rect.Add(r.origin))
}

// AppendReadout draws text at the cursor and advances it. When the text
// would run past the display's right edge the readout is first scrolled
// left by half the display width.
func (r *Renderer) AppendReadout(text string, col color.Color) {
	w := r.TextWidth(text)
	if r.cursor.X+w > r.display.Max.X {
		r.scroll()
	}

	d := &font.Drawer{
		Dst:  r.canvas,
		Src:  image.NewUniform(col),
		Face: r.face,
		Dot:  fixed.Point26_6{X: fixed.I(r.cursor.X), Y: fixed.I(r.cursor.Y + r.ascent)},
	}
	d.DrawString(text)
	r.cursor.X += w
}

// AppendEvent writes a framed key label: open glyph, label, close glyph.
func (r *Renderer) AppendEvent(label string, g Glyphs) {
	r.AppendReadout(g.Open, ColorGlyph)
	r.AppendReadout(label, ColorText)
	r.AppendReadout(g.Close, ColorGlyph)
}

// BlinkCursor draws the cursor bar, or erases it when visible is false.
func (r *Renderer) BlinkCursor(visible bool) {
	col := ColorBackground
	if visible {
		col = ColorText
	}
	bar := image.Rect(r.cursor.X, r.cursor.Y, r.cursor.X+1, r.cursor.Y+r.glyphH)
	draw.Draw(r.canvas, bar, image.NewUniform(col), image.Point{}, draw.Src)
}

// scroll moves the right half of the display to the left half, redraws the
// right half from the keyboard image and rewinds the cursor.
func (r *Renderer) scroll() {
	half := r.display.Dx() / 2
	mid := r.display.Min.X + half

	left := image.Rect(r.display.Min.X, r.display.Min.Y, mid, r.display.Max.Y)
	draw.Draw(r.canvas, left, r.canvas, image.Pt(mid, r.display.Min.Y), draw.Src)
	r.restore(image.Rect(mid, r.display.Min.Y, r.display.Max.X, r.display.Max.Y))

	r.cursor.X -= half
}

// restore redraws a screen rectangle from the background and keyboard image.
func (r *Renderer) restore(rect image.Rectangle) {
	draw.Draw(r.canvas, rect, r.background, rect.Min, draw.Src)
	draw.Draw(r.canvas, rect, r.source, rect.Min.Sub(r.origin).Add(r.source.Bounds().Min), draw.Over)
}
