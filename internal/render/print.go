package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bookpublish/internal/entity"
	"bookpublish/internal/imageload"
	"bookpublish/internal/printspec"
)

// PrintOptions are the per-run settings of a print generator.
type PrintOptions struct {
	// DPI is recorded in the cover specs; 0 means 300.
	DPI         int
	ImagePolicy imageload.Policy
	Progress    entity.ProgressFunc
	Created     time.Time
}

// Output is one rendered print file.
type Output struct {
	Data      []byte
	Warnings  []string
	PageCount int
}

// PrintResult is the interior and cover pair a print vendor expects.
type PrintResult struct {
	Interior Output
	Cover    Output
	Specs    printspec.CoverSpecs
}

// Warnings returns the interior warnings followed by the cover warnings.
func (r PrintResult) Warnings() []string {
	out := make([]string, 0, len(r.Interior.Warnings)+len(r.Cover.Warnings))
	out = append(out, r.Interior.Warnings...)
	return append(out, r.Cover.Warnings...)
}

// CanvasFactory starts a new document. Tests swap in a recorder.
type CanvasFactory func(info DocumentInfo) Canvas

// PDFCanvasFactory returns a factory of gofpdf canvases built with opts.
func PDFCanvasFactory(opts ...PDFOption) CanvasFactory {
	return func(info DocumentInfo) Canvas {
		return NewPDFCanvas(info, opts...)
	}
}

// PrintJob is one validated book ready to render.
type PrintJob struct {
	Book    entity.Book
	Trim    printspec.TrimSize
	Pages   []entity.Page
	Specs   printspec.CoverSpecs
	Images  Images
	Options PrintOptions
}

// InteriorLayout is the vendor specific part of an interior page: where the
// page sits and what is printed around its body.
type InteriorLayout interface {
	Frame(j *PrintJob, page entity.Page) PageFrame
	// Decorate draws running heads and folios after the body. folio is empty
	// on pages that carry none.
	Decorate(c Canvas, j *PrintJob, page entity.Page, f PageFrame, folio string)
}

// Printer renders a paperback interior and wrap cover against one vendor
// profile. The zero value is not usable; fill every field but NewCanvas and
// Now, which default to gofpdf and time.Now.
type Printer struct {
	// Name labels log lines, "kdp" or "lulu".
	Name            string
	Profile         printspec.Profile
	InteriorSubject string
	CoverSubject    string

	Loader    *imageload.Loader
	Log       *slog.Logger
	NewCanvas CanvasFactory
	Now       func() time.Time
}

// Prepare validates everything that can fail cheaply. The trim size is
// checked before anything else.
func (p *Printer) Prepare(book entity.Book, opts PrintOptions) (*PrintJob, error) {
	trim, err := p.Profile.RequireTrimSize(book.Cover.TrimSize)
	if err != nil {
		return nil, err
	}
	if err := book.Layout.Validate(); err != nil {
		return nil, err
	}
	pages := book.Layout.Pages()
	paper := printspec.PaperType(book.Cover.PaperType)
	if v := p.Profile.ValidatePaperPageCount(len(pages), trim, paper); !v.Valid {
		return nil, &entity.InvalidInputError{Field: "page_count", Reason: v.Reason}
	}
	specs, err := p.Profile.CoverSpecs(len(pages), trim, paper, opts.DPI)
	if err != nil {
		return nil, err
	}
	return &PrintJob{Book: book, Trim: trim, Pages: pages, Specs: specs, Options: opts}, nil
}

func (p *Printer) load(ctx context.Context, j *PrintJob, refs []string) error {
	j.Options.Progress.Report("loading_images", 5)
	set, err := p.Loader.LoadAll(ctx, refs)
	if err != nil {
		return err
	}
	j.Images = Images{Set: set, Policy: j.Options.ImagePolicy}
	return nil
}

func coverRefs(book entity.Book) []string {
	return []string{book.Cover.FrontImageRef, book.Cover.BackImageRef}
}

// Generate renders the interior and the cover. Images for both are fetched
// together before drawing starts.
func (p *Printer) Generate(ctx context.Context, book entity.Book, opts PrintOptions, layout InteriorLayout) (PrintResult, error) {
	j, err := p.Prepare(book, opts)
	if err != nil {
		return PrintResult{}, err
	}
	if err := p.load(ctx, j, append(ImageRefs(j.Pages), coverRefs(book)...)); err != nil {
		return PrintResult{}, err
	}
	interior, err := p.renderInterior(ctx, j, layout)
	if err != nil {
		return PrintResult{}, err
	}
	cover, err := p.renderCover(ctx, j)
	if err != nil {
		return PrintResult{}, err
	}
	opts.Progress.Report("done", 100)
	return PrintResult{Interior: interior, Cover: cover, Specs: j.Specs}, nil
}

func (p *Printer) GenerateInterior(ctx context.Context, book entity.Book, opts PrintOptions, layout InteriorLayout) (Output, error) {
	j, err := p.Prepare(book, opts)
	if err != nil {
		return Output{}, err
	}
	if err := p.load(ctx, j, ImageRefs(j.Pages)); err != nil {
		return Output{}, err
	}
	return p.renderInterior(ctx, j, layout)
}

func (p *Printer) GenerateCover(ctx context.Context, book entity.Book, opts PrintOptions) (Output, error) {
	j, err := p.Prepare(book, opts)
	if err != nil {
		return Output{}, err
	}
	if err := p.load(ctx, j, coverRefs(book)); err != nil {
		return Output{}, err
	}
	return p.renderCover(ctx, j)
}

func (p *Printer) canvas(j *PrintJob, subject string) Canvas {
	created := j.Options.Created
	if created.IsZero() {
		now := p.Now
		if now == nil {
			now = time.Now
		}
		created = now()
	}
	info := DocumentInfo{
		Title:   j.Book.Metadata.Title,
		Author:  j.Book.Metadata.Author,
		Subject: subject,
		Created: created,
	}
	if p.NewCanvas == nil {
		return NewPDFCanvas(info)
	}
	return p.NewCanvas(info)
}

func (p *Printer) logger() *slog.Logger {
	if p.Log == nil {
		return slog.Default()
	}
	return p.Log
}

func (p *Printer) renderInterior(ctx context.Context, j *PrintJob, layout InteriorLayout) (Output, error) {
	var out Output
	c := p.canvas(j, p.InteriorSubject)
	firstBody := FirstBodyPage(j.Pages)
	starts := ChapterStarts(j.Pages)

	for i, page := range j.Pages {
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}
		f := layout.Frame(j, page)
		c.NewPage(f.Size)
		c.SetTrimBox(f.Trim)

		warnings, err := DrawPageBody(c, page, f.Content, starts[page.Number], j.Images)
		if err != nil {
			return Output{}, err
		}
		out.Warnings = append(out.Warnings, warnings...)

		layout.Decorate(c, j, page, f, Folio(page, firstBody))
		j.Options.Progress.Report("rendering_interior", 10+70*(i+1)/len(j.Pages))
	}

	data, err := c.Bytes()
	if err != nil {
		return Output{}, err
	}
	out.Data = data
	out.PageCount = len(j.Pages)
	p.logger().Info(p.Name+" interior rendered", "book_id", j.Book.Metadata.BookID, "pages", out.PageCount, "warnings", len(out.Warnings))
	return out, nil
}

func (p *Printer) renderCover(ctx context.Context, j *PrintJob) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	j.Options.Progress.Report("rendering_cover", 85)
	c := p.canvas(j, p.CoverSubject)
	warnings, err := DrawWrapCover(c, j.Specs, CoverContent{
		Title:     j.Book.Metadata.Title,
		Author:    j.Book.Metadata.Author,
		SpineText: j.Book.Cover.SpineText,
		Blurb:     j.Book.Cover.BackBlurb,
		FrontRef:  j.Book.Cover.FrontImageRef,
		BackRef:   j.Book.Cover.BackImageRef,
	}, j.Images)
	if err != nil {
		return Output{}, err
	}
	data, err := c.Bytes()
	if err != nil {
		return Output{}, err
	}
	p.logger().Info(p.Name+" cover rendered", "book_id", j.Book.Metadata.BookID,
		"spine_in", fmt.Sprintf("%.4f", j.Specs.SpineWidthInches), "warnings", len(warnings))
	return Output{Data: data, Warnings: warnings, PageCount: 1}, nil
}
