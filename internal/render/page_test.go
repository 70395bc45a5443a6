package render_test

import (
	"testing"

	"bookpublish/internal/entity"
	"bookpublish/internal/imageload"
	"bookpublish/internal/printspec"
	"bookpublish/internal/render"
	"bookpublish/internal/render/rendertest"
	"bookpublish/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedImages(t *testing.T, refs ...string) *imageload.Set {
	t.Helper()
	set := &imageload.Set{Images: map[string]imageload.Image{}, Errors: map[string]error{}}
	src := testutil.SampleImages()
	for _, ref := range refs {
		img, err := imageload.Decode(ref, src[ref])
		require.NoError(t, err)
		set.Images[ref] = img
	}
	return set
}

func TestFolio(t *testing.T) {
	pages := testutil.SampleBook().Layout.Pages()
	first := render.FirstBodyPage(pages)
	require.Equal(t, 3, first)

	assert.Equal(t, "", render.Folio(pages[0], first), "title page")
	assert.Equal(t, "ii", render.Folio(pages[1], first), "copyright page")
	assert.Equal(t, "1", render.Folio(pages[2], first))
	assert.Equal(t, "28", render.Folio(pages[29], first))
	assert.Equal(t, "", render.Folio(pages[31], first), "blank page")
}

func TestChapterStarts(t *testing.T) {
	starts := render.ChapterStarts(testutil.SampleBook().Layout.Pages())
	assert.Equal(t, map[int]bool{3: true, 6: true, 8: true}, starts)
}

func TestImageRefs(t *testing.T) {
	refs := render.ImageRefs(testutil.SampleBook().Layout.Pages())
	assert.Equal(t, []string{testutil.Ch1Ref, testutil.Ch2Ref, testutil.Ch3Ref}, refs)
}

func TestDrawPageBody_ChapterOpening(t *testing.T) {
	pages := testutil.SampleBook().Layout.Pages()
	rec := rendertest.New()
	rec.NewPage(printspec.Size{Width: 6, Height: 9})

	box := render.Rect{X: 0.5, Y: 0.5, W: 5, H: 8}
	warnings, err := render.DrawPageBody(rec, pages[5], box, true, render.Images{Set: loadedImages(t, testutil.Ch2Ref)})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	page := rec.Pages[0]
	assert.True(t, page.HasText("The Market"))
	assert.True(t, page.HasText("Yusuf"))
	imgs := page.OpsOf(rendertest.OpImage)
	require.Len(t, imgs, 1)
	assert.Equal(t, testutil.Ch2Ref, imgs[0].Ref)
	assert.Equal(t, render.FitContain, imgs[0].Fit)
	assert.GreaterOrEqual(t, imgs[0].Box.Y+imgs[0].Box.H, imgs[0].Box.Y)
	assert.LessOrEqual(t, imgs[0].Box.Y+imgs[0].Box.H, box.Y+box.H+1e-9)
}

func TestDrawPageBody_MissingImage(t *testing.T) {
	page := entity.Page{
		Number: 9,
		Type:   entity.PageImage,
		Blocks: []entity.Block{{Kind: entity.BlockImage, ImageRef: "img/gone.png", Caption: "Gone"}},
	}
	set := &imageload.Set{Images: map[string]imageload.Image{}, Errors: map[string]error{"img/gone.png": assert.AnError}}
	box := render.Rect{X: 0.5, Y: 0.5, W: 5, H: 8}

	t.Run("placeholder", func(t *testing.T) {
		rec := rendertest.New()
		rec.NewPage(printspec.Size{Width: 6, Height: 9})
		warnings, err := render.DrawPageBody(rec, page, box, false, render.Images{Set: set, Policy: imageload.PolicyPlaceholder})
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "page 9")

		p := rec.Pages[0]
		assert.Empty(t, p.OpsOf(rendertest.OpImage))
		rects := p.OpsOf(rendertest.OpRect)
		require.Len(t, rects, 1)
		assert.Equal(t, render.Placeholder, rects[0].Color)
		assert.True(t, p.HasText("Gone"))
	})

	t.Run("fail", func(t *testing.T) {
		rec := rendertest.New()
		rec.NewPage(printspec.Size{Width: 6, Height: 9})
		_, err := render.DrawPageBody(rec, page, box, false, render.Images{Set: set, Policy: imageload.PolicyFail})
		assert.ErrorIs(t, err, entity.ErrImageLoad)
	})
}

func TestDrawPageBody_CopyrightSitsAtBottom(t *testing.T) {
	pages := testutil.SampleBook().Layout.Pages()
	rec := rendertest.New()
	rec.NewPage(printspec.Size{Width: 6, Height: 9})
	box := render.Rect{X: 0.5, Y: 0.5, W: 5, H: 8}

	_, err := render.DrawPageBody(rec, pages[1], box, false, render.Images{})
	require.NoError(t, err)
	texts := rec.Pages[0].OpsOf(rendertest.OpText)
	require.NotEmpty(t, texts)
	assert.Greater(t, texts[0].Y, box.Y+box.H/2)
	assert.Equal(t, render.SmallFont, texts[0].Font)
}

func TestDrawWrapCover(t *testing.T) {
	book := testutil.SampleBook()
	content := render.CoverContent{
		Title:     book.Metadata.Title,
		SpineText: book.Cover.SpineText,
		Blurb:     book.Cover.BackBlurb,
		FrontRef:  testutil.FrontRef,
		BackRef:   testutil.BackRef,
	}
	imgs := render.Images{Set: loadedImages(t, testutil.FrontRef, testutil.BackRef)}

	t.Run("thin spine", func(t *testing.T) {
		specs, err := printspec.GenerateKDPCoverSpecs(32, printspec.TrimSize{Width: 6, Height: 9}, printspec.PaperWhite)
		require.NoError(t, err)
		rec := rendertest.New()

		warnings, err := render.DrawWrapCover(rec, specs, content, imgs)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "spine")

		page := rec.Pages[0]
		assert.Equal(t, printspec.Size{Width: specs.TotalWidthInches, Height: specs.TotalHeightInches}, page.Size)
		assert.Empty(t, page.OpsOf(rendertest.OpTextRotated))

		images := page.OpsOf(rendertest.OpImage)
		require.Len(t, images, 2)
		assert.Equal(t, testutil.FrontRef, images[0].Ref)
		assert.InDelta(t, specs.BackWidth+specs.SpineWidthInches, images[0].Box.X, 1e-9)
		assert.Equal(t, render.FitCover, images[0].Fit)
		assert.Equal(t, testutil.BackRef, images[1].Ref)
		assert.Equal(t, 0.0, images[1].Box.X)
	})

	t.Run("spine text centred and barcode zone clear", func(t *testing.T) {
		specs, err := printspec.GenerateKDPCoverSpecs(200, printspec.TrimSize{Width: 6, Height: 9}, printspec.PaperWhite)
		require.NoError(t, err)
		rec := rendertest.New()

		warnings, err := render.DrawWrapCover(rec, specs, content, imgs)
		require.NoError(t, err)
		assert.Empty(t, warnings)

		page := rec.Pages[0]
		spine := page.OpsOf(rendertest.OpTextRotated)
		require.Len(t, spine, 1)
		assert.Equal(t, "The Little Lantern", spine[0].Text)
		assert.InDelta(t, specs.SpineCenterX, spine[0].X, 1e-9)
		assert.InDelta(t, specs.CenterY, spine[0].Y, 1e-9)

		zone := render.BarcodeZone(specs)
		var cleared bool
		for _, op := range page.OpsOf(rendertest.OpRect) {
			if op.Box == zone && op.Color == render.White {
				cleared = true
			}
		}
		assert.True(t, cleared)
		for _, op := range page.OpsOf(rendertest.OpText) {
			inZone := op.X >= zone.X && op.X <= zone.X+zone.W && op.Y >= zone.Y && op.Y <= zone.Y+zone.H
			assert.False(t, inZone, "text %q inside the barcode zone", op.Text)
		}
	})

	t.Run("missing optional content", func(t *testing.T) {
		specs, err := printspec.GenerateKDPCoverSpecs(200, printspec.TrimSize{Width: 6, Height: 9}, printspec.PaperWhite)
		require.NoError(t, err)
		bare := render.CoverContent{Title: "Untitled"}
		rec := rendertest.New()

		warnings, err := render.DrawWrapCover(rec, specs, bare, render.Images{Set: loadedImages(t)})
		require.NoError(t, err)
		assert.Len(t, warnings, 3)
		assert.True(t, rec.Pages[0].HasText("Untitled"))
	})
}
