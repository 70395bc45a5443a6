// Package lulu renders Lulu print-ready files. Lulu bleeds the interior on
// all four edges and sets running headers and footers, so its geometry is
// kept apart from the KDP generator.
package lulu

import (
	"context"
	"log/slog"
	"time"

	"bookpublish/internal/entity"
	"bookpublish/internal/imageload"
	"bookpublish/internal/printspec"
	"bookpublish/internal/render"
)

const (
	// SafetyMargin keeps live content this far inside the trim.
	SafetyMargin = 0.5
	headerGap    = 0.2

	ContentType = "application/pdf"
)

// HeaderFooterConfig controls the running heads. Headers show the book
// title on even pages and the chapter title on odd pages; footers carry the
// folio.
type HeaderFooterConfig struct {
	ShowHeaders bool    `json:"show_headers" yaml:"show_headers"`
	ShowFooters bool    `json:"show_footers" yaml:"show_footers"`
	FontSize    float64 `json:"font_size,omitempty" yaml:"font_size,omitempty"`
}

func DefaultHeaderFooter() HeaderFooterConfig {
	return HeaderFooterConfig{ShowHeaders: true, ShowFooters: true, FontSize: 9}
}

func (h HeaderFooterConfig) font() render.Font {
	size := h.FontSize
	if size <= 0 {
		size = 9
	}
	return render.Font{Family: "Times", Style: "I", Size: size}
}

type (
	CanvasFactory = render.CanvasFactory
	Output        = render.Output
	Result        = render.PrintResult
)

type Options struct {
	DPI         int
	ImagePolicy imageload.Policy
	Progress    entity.ProgressFunc
	Created     time.Time
	// HeaderFooter defaults to DefaultHeaderFooter when nil.
	HeaderFooter *HeaderFooterConfig
}

func (o Options) headerFooter() HeaderFooterConfig {
	if o.HeaderFooter == nil {
		return DefaultHeaderFooter()
	}
	return *o.HeaderFooter
}

func (o Options) printOptions() render.PrintOptions {
	return render.PrintOptions{DPI: o.DPI, ImagePolicy: o.ImagePolicy, Progress: o.Progress, Created: o.Created}
}

type Generator struct {
	printer render.Printer
}

type Option func(*Generator)

func WithCanvas(f CanvasFactory) Option {
	return func(g *Generator) { g.printer.NewCanvas = f }
}

// WithUTF8Font draws every text with the TrueType font ttf instead of the
// cp1252 core fonts.
func WithUTF8Font(ttf []byte) Option {
	return func(g *Generator) { g.printer.NewCanvas = render.PDFCanvasFactory(render.WithUTF8Font(ttf)) }
}

func NewGenerator(loader *imageload.Loader, log *slog.Logger, opts ...Option) *Generator {
	if log == nil {
		log = slog.Default()
	}
	g := &Generator{printer: render.Printer{
		Name:            "lulu",
		Profile:         printspec.Lulu(),
		InteriorSubject: "Lulu print-ready interior",
		CoverSubject:    "Lulu print-ready cover",
		Loader:          loader,
		Log:             log,
		NewCanvas:       render.PDFCanvasFactory(),
		Now:             time.Now,
	}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func InteriorFileName(book entity.Book) string {
	return book.Metadata.BookID + "-lulu-interior.pdf"
}

func CoverFileName(book entity.Book) string {
	return book.Metadata.BookID + "-lulu-cover.pdf"
}

// Generate renders the interior and the wrap cover.
func (g *Generator) Generate(ctx context.Context, book entity.Book, opts Options) (Result, error) {
	return g.printer.Generate(ctx, book, opts.printOptions(), interiorLayout{hf: opts.headerFooter()})
}

func (g *Generator) GenerateInterior(ctx context.Context, book entity.Book, opts Options) (Output, error) {
	return g.printer.GenerateInterior(ctx, book, opts.printOptions(), interiorLayout{hf: opts.headerFooter()})
}

func (g *Generator) GenerateCover(ctx context.Context, book entity.Book, opts Options) (Output, error) {
	return g.printer.GenerateCover(ctx, book, opts.printOptions())
}

// Frame returns the geometry of page n: bleed on every edge, the safety
// margin all round and the gutter on the binding side. Space for the
// running heads comes out of the content area only when they are shown.
func Frame(trim printspec.TrimSize, pageCount, n int, hf HeaderFooterConfig) render.PageFrame {
	profile := printspec.Lulu()
	inside := profile.InsideMargin(pageCount)
	trimBox := render.Rect{X: printspec.Bleed, Y: printspec.Bleed, W: trim.Width, H: trim.Height}

	left, right := inside, SafetyMargin
	if n%2 == 0 {
		left, right = SafetyMargin, inside
	}
	top, bottom := SafetyMargin, SafetyMargin
	lh := hf.font().LineHeight()
	if hf.ShowHeaders {
		top += lh + headerGap
	}
	if hf.ShowFooters {
		bottom += lh + headerGap
	}
	return render.PageFrame{
		Size: profile.InteriorPageSize(trim),
		Trim: trimBox,
		Content: render.Rect{
			X: trimBox.X + left,
			Y: trimBox.Y + top,
			W: trimBox.W - left - right,
			H: trimBox.H - top - bottom,
		},
	}
}

// RunningHead returns the header text of page, empty when the page carries
// no header.
func RunningHead(book entity.Book, page entity.Page) string {
	switch page.Type {
	case entity.PageTitle, entity.PageCopyright, entity.PageBlank:
		return ""
	}
	if page.Number%2 == 0 || page.ChapterTitle == "" {
		return book.Metadata.Title
	}
	return page.ChapterTitle
}

type interiorLayout struct {
	hf HeaderFooterConfig
}

func (l interiorLayout) Frame(j *render.PrintJob, page entity.Page) render.PageFrame {
	return Frame(j.Trim, len(j.Pages), page.Number, l.hf)
}

// Decorate sets the running head above the content and the folio below it,
// both in gray.
func (l interiorLayout) Decorate(c render.Canvas, j *render.PrintJob, page entity.Page, f render.PageFrame, folio string) {
	font := l.hf.font()
	c.SetTextColor(render.Gray)
	if head := RunningHead(j.Book, page); l.hf.ShowHeaders && head != "" {
		c.SetFont(font)
		render.DrawCentered(c, f.Content.X, f.Content.W, f.Trim.Y+SafetyMargin+font.Size/72, head)
	}
	if l.hf.ShowFooters && folio != "" {
		c.SetFont(font)
		render.DrawCentered(c, f.Content.X, f.Content.W, f.Trim.Y+f.Trim.H-SafetyMargin, folio)
	}
	c.SetTextColor(render.Black)
}
