package render_test

import (
	"context"
	"errors"
	"testing"

	"bookpublish/internal/entity"
	"bookpublish/internal/imageload"
	"bookpublish/internal/logging"
	"bookpublish/internal/printspec"
	"bookpublish/internal/render"
	"bookpublish/internal/render/rendertest"
	"bookpublish/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainLayout puts every page on a bare 6x9 sheet and records the folios
// handed to Decorate.
type plainLayout struct {
	folios map[int]string
}

func (l *plainLayout) Frame(j *render.PrintJob, _ entity.Page) render.PageFrame {
	trim := render.Rect{W: j.Trim.Width, H: j.Trim.Height}
	return render.PageFrame{
		Size:    printspec.Size{Width: j.Trim.Width, Height: j.Trim.Height},
		Trim:    trim,
		Content: trim.Inset(0.5),
	}
}

func (l *plainLayout) Decorate(c render.Canvas, _ *render.PrintJob, page entity.Page, f render.PageFrame, folio string) {
	l.folios[page.Number] = folio
	if folio != "" {
		c.SetFont(render.FolioFont)
		render.DrawCentered(c, f.Content.X, f.Content.W, f.Trim.H-0.25, folio)
	}
}

func newPrinter(docs *[]*rendertest.Recorder) *render.Printer {
	return &render.Printer{
		Name:            "test",
		Profile:         printspec.KDP(),
		InteriorSubject: "interior",
		CoverSubject:    "cover",
		Loader:          imageload.NewLoader(testutil.SampleImages(), 2, logging.NewNop()),
		Log:             logging.NewNop(),
		NewCanvas: func(render.DocumentInfo) render.Canvas {
			rec := rendertest.New()
			*docs = append(*docs, rec)
			return rec
		},
	}
}

func TestPrinter_Generate(t *testing.T) {
	var docs []*rendertest.Recorder
	layout := &plainLayout{folios: map[int]string{}}

	res, err := newPrinter(&docs).Generate(context.Background(), testutil.SampleBook(), render.PrintOptions{}, layout)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, 32, res.Interior.PageCount)
	assert.Len(t, docs[0].Pages, 32)
	assert.Equal(t, printspec.Size{Width: 6, Height: 9}, docs[0].Pages[0].Size)
	assert.Equal(t, "", layout.folios[1])
	assert.Equal(t, "1", layout.folios[3])
	assert.True(t, docs[0].Pages[2].HasText("1"))

	assert.Equal(t, 1, res.Cover.PageCount)
	assert.Equal(t, res.Specs.TotalWidthInches, docs[1].Pages[0].Size.Width)
	assert.Equal(t, append(res.Interior.Warnings, res.Cover.Warnings...), res.Warnings())
}

func TestPrinter_PrepareChecksPaperLimit(t *testing.T) {
	book := testutil.SampleBook()
	pages := book.Layout.Pages()
	for len(pages) < 601 {
		pages = append(pages, pages[len(pages)-3])
	}
	book.Layout = testutil.BuildLayout(pages)
	book.Cover.PaperType = "standard-color"

	var docs []*rendertest.Recorder
	_, err := newPrinter(&docs).Prepare(book, render.PrintOptions{})
	var invalid *entity.InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "page_count", invalid.Field)
	assert.Contains(t, invalid.Reason, "600")

	book.Cover.PaperType = "white"
	j, err := newPrinter(&docs).Prepare(book, render.PrintOptions{})
	require.NoError(t, err)
	assert.Len(t, j.Pages, 601)
	assert.Empty(t, docs)
}

func TestPrinter_GenerateCoverSkipsInterior(t *testing.T) {
	var docs []*rendertest.Recorder
	out, err := newPrinter(&docs).GenerateCover(context.Background(), testutil.SampleBook(), render.PrintOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 1, out.PageCount)
}
