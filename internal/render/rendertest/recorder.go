// Package rendertest provides a Canvas that records drawing operations.
package rendertest

import (
	"fmt"
	"strings"

	"bookpublish/internal/imageload"
	"bookpublish/internal/printspec"
	"bookpublish/internal/render"
)

type OpKind string

const (
	OpText        OpKind = "text"
	OpTextRotated OpKind = "text_rotated"
	OpImage       OpKind = "image"
	OpRect        OpKind = "rect"
)

type Op struct {
	Kind  OpKind
	Text  string
	X, Y  float64
	Angle float64
	Font  render.Font
	Ref   string
	Box   render.Rect
	Fit   render.Fit
	Color render.Color
}

type Page struct {
	Size    printspec.Size
	TrimBox render.Rect
	Ops     []Op
}

// Texts returns the text of every text operation on the page.
func (p Page) Texts() []string {
	var out []string
	for _, op := range p.Ops {
		if op.Kind == OpText || op.Kind == OpTextRotated {
			out = append(out, op.Text)
		}
	}
	return out
}

// HasText reports whether any text operation contains s.
func (p Page) HasText(s string) bool {
	for _, t := range p.Texts() {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

// OpsOf returns the operations of one kind.
func (p Page) OpsOf(kind OpKind) []Op {
	var out []Op
	for _, op := range p.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Recorder implements render.Canvas. Text width is approximated as half an
// em per rune.
type Recorder struct {
	Pages []Page
	// Charset limits the runes CanRender accepts; nil accepts all.
	Charset func(rune) bool
	font    render.Font
	color   render.Color
}

var (
	_ render.Canvas       = (*Recorder)(nil)
	_ render.GlyphChecker = (*Recorder)(nil)
)

func New() *Recorder {
	return &Recorder{font: render.Font{Family: "Times", Size: 12}}
}

func (r *Recorder) current() *Page {
	if len(r.Pages) == 0 {
		panic("rendertest: draw before NewPage")
	}
	return &r.Pages[len(r.Pages)-1]
}

func (r *Recorder) NewPage(size printspec.Size) {
	r.Pages = append(r.Pages, Page{Size: size})
}

func (r *Recorder) SetTrimBox(box render.Rect) { r.current().TrimBox = box }

func (r *Recorder) SetFont(f render.Font) { r.font = f }

func (r *Recorder) SetTextColor(c render.Color) { r.color = c }

func (r *Recorder) MeasureText(s string) float64 {
	return float64(len([]rune(s))) * r.font.Size / 72 * 0.5
}

func (r *Recorder) CanRender(c rune) bool {
	return r.Charset == nil || r.Charset(c)
}

func (r *Recorder) DrawText(x, y float64, s string) {
	p := r.current()
	p.Ops = append(p.Ops, Op{Kind: OpText, Text: s, X: x, Y: y, Font: r.font, Color: r.color})
}

func (r *Recorder) DrawTextRotated(cx, cy, angle float64, s string) {
	p := r.current()
	p.Ops = append(p.Ops, Op{Kind: OpTextRotated, Text: s, X: cx, Y: cy, Angle: angle, Font: r.font, Color: r.color})
}

func (r *Recorder) DrawImage(img imageload.Image, box render.Rect, fit render.Fit) error {
	if img.Ref == "" {
		return fmt.Errorf("rendertest: image without ref")
	}
	p := r.current()
	p.Ops = append(p.Ops, Op{Kind: OpImage, Ref: img.Ref, Box: box, Fit: fit})
	return nil
}

func (r *Recorder) FillRect(box render.Rect, c render.Color) {
	p := r.current()
	p.Ops = append(p.Ops, Op{Kind: OpRect, Box: box, Color: c})
}

func (r *Recorder) Bytes() ([]byte, error) {
	if len(r.Pages) == 0 {
		return nil, fmt.Errorf("rendertest: no pages")
	}
	return []byte(fmt.Sprintf("%%PDF-recorded %d pages", len(r.Pages))), nil
}
