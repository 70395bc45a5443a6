// Package render defines the drawing capability the PDF generators use and
// the layout math shared by them. Lengths are inches from the top-left corner
// of the current page; font sizes are points.
package render

import (
	"bookpublish/internal/imageload"
	"bookpublish/internal/printspec"
)

type Rect struct {
	X, Y, W, H float64
}

// Inset shrinks r by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

type Color struct {
	R, G, B uint8
}

var (
	Black       = Color{0, 0, 0}
	White       = Color{255, 255, 255}
	Placeholder = Color{230, 230, 230}
	Gray        = Color{110, 110, 110}
)

type Font struct {
	Family string // "Helvetica" or "Times"
	Style  string // "", "B", "I" or "BI"
	Size   float64
}

// LineHeight is the leading for the font in inches.
func (f Font) LineHeight() float64 {
	return f.Size / 72 * 1.35
}

type Fit int

const (
	// FitContain scales the image to lie entirely inside the box.
	FitContain Fit = iota
	// FitCover scales the image to cover the box and clips the overflow.
	FitCover
)

// Canvas is an immediate-mode page surface.
type Canvas interface {
	NewPage(size printspec.Size)
	// SetTrimBox records the finished page area inside the bleed for the
	// current page.
	SetTrimBox(box Rect)
	SetFont(f Font)
	SetTextColor(c Color)
	// MeasureText returns the advance width of s in the current font.
	MeasureText(s string) float64
	// DrawText draws s with its baseline starting at (x, y).
	DrawText(x, y float64, s string)
	// DrawTextRotated draws s centred on (cx, cy), rotated counter-clockwise
	// by angle degrees.
	DrawTextRotated(cx, cy, angle float64, s string)
	DrawImage(img imageload.Image, box Rect, fit Fit) error
	FillRect(box Rect, c Color)
	// Bytes finishes the document.
	Bytes() ([]byte, error)
}

// Measurer is the subset of Canvas needed to wrap text.
type Measurer interface {
	MeasureText(s string) float64
}
