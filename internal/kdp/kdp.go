// Package kdp renders Amazon KDP paperback files: a bled interior PDF and a
// single-canvas wrap cover PDF.
package kdp

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
	// OutsideMargin is KDP's minimum outside, top and bottom margin for
	// bled interiors.
	OutsideMargin = 0.375
	footerReserve = 0.3

	ContentType = "application/pdf"
)

type (
	CanvasFactory = render.CanvasFactory
	Options       = render.PrintOptions
	Output        = render.Output
	// Result is the pair of files KDP expects for a paperback.
	Result = render.PrintResult
)

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
		Name:            "kdp",
		Profile:         printspec.KDP(),
		InteriorSubject: "KDP paperback interior",
		CoverSubject:    "KDP paperback cover",
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

// InteriorFileName and CoverFileName are the download names of the files.
func InteriorFileName(book entity.Book) string {
	return book.Metadata.BookID + "-kdp-interior.pdf"
}

func CoverFileName(book entity.Book) string {
	return book.Metadata.BookID + "-kdp-cover.pdf"
}

// Generate renders the interior and the cover. Images for both are fetched
// together before drawing starts.
func (g *Generator) Generate(ctx context.Context, book entity.Book, opts Options) (Result, error) {
	return g.printer.Generate(ctx, book, opts, interiorLayout{})
}

func (g *Generator) GenerateInterior(ctx context.Context, book entity.Book, opts Options) (Output, error) {
	return g.printer.GenerateInterior(ctx, book, opts, interiorLayout{})
}

func (g *Generator) GenerateCover(ctx context.Context, book entity.Book, opts Options) (Output, error) {
	return g.printer.GenerateCover(ctx, book, opts)
}

// Frame returns the geometry of page n. Odd pages sit on the right with the
// gutter on their left; the bleed is added on the outside edge only.
func Frame(trim printspec.TrimSize, pageCount, n int) render.PageFrame {
	size := printspec.KDP().InteriorPageSize(trim)
	inside := printspec.KDP().InsideMargin(pageCount)

	trimBox := render.Rect{X: 0, Y: printspec.Bleed, W: trim.Width, H: trim.Height}
	left, right := inside, OutsideMargin
	if n%2 == 0 {
		trimBox.X = printspec.Bleed
		left, right = OutsideMargin, inside
	}
	return render.PageFrame{
		Size: size,
		Trim: trimBox,
		Content: render.Rect{
			X: trimBox.X + left,
			Y: trimBox.Y + OutsideMargin,
			W: trimBox.W - left - right,
			H: trimBox.H - 2*OutsideMargin - footerReserve,
		},
	}
}

type interiorLayout struct{}

func (interiorLayout) Frame(j *render.PrintJob, page entity.Page) render.PageFrame {
	return Frame(j.Trim, len(j.Pages), page.Number)
}

// Decorate sets the folio centred in the bottom margin.
func (interiorLayout) Decorate(c render.Canvas, _ *render.PrintJob, _ entity.Page, f render.PageFrame, folio string) {
	if folio == "" {
		return
	}
	c.SetFont(render.FolioFont)
	c.SetTextColor(render.Black)
	render.DrawCentered(c, f.Content.X, f.Content.W, f.Trim.Y+f.Trim.H-OutsideMargin, folio)
}
