package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bookpublish/internal/config"
	"bookpublish/internal/entity"
	"bookpublish/internal/logging"
	"bookpublish/internal/publish"
	"bookpublish/internal/testutil"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, store string) config.Config {
	t.Helper()
	return config.Config{
		ISBNStore:             store,
		SQLitePath:            filepath.Join(t.TempDir(), "isbn.db"),
		ISBNPrefix:            "978-1-7361",
		ImageFetchConcurrency: 2,
		ImageRoot:             t.TempDir(),
		RenderDPI:             150,
	}
}

func TestNew_MemoryStore(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, config.StoreMemory), logging.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.NoError(t, a.Ping(context.Background()))

	rec, err := a.ISBNs.Assign(context.Background(), "book-1", "epub")
	require.NoError(t, err)
	assert.Equal(t, "9781736100011", rec.ISBN13)
}

func TestNew_SQLiteStore(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, config.StoreSQLite), logging.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, a.Close())
	assert.NoError(t, a.Close(), "closing twice is harmless")
}

func TestNew_BadPrefix(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	cfg.ISBNPrefix = "12345"
	_, err := New(context.Background(), cfg, logging.NewNop(), nil)
	assert.Error(t, err)
}

func TestExportConfig_AppliesRenderDPI(t *testing.T) {
	a := &App{Config: config.Config{RenderDPI: 150}}
	assert.Equal(t, 150, a.ExportConfig(publish.Config{}).DPI)
	assert.Equal(t, 600, a.ExportConfig(publish.Config{DPI: 600}).DPI)
}

func TestNew_ExportsDataURIImages(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, config.StoreMemory), logging.NewNop(), nil)
	require.NoError(t, err)
	defer a.Close()

	book := testutil.SampleBook()
	book.Cover.FrontImageRef = testutil.DataURI(testutil.PNG(10, 15))
	book.Illustrations = nil
	book.Cover.BackImageRef = ""

	res, err := a.Exports.Run(context.Background(), book, a.ExportConfig(publish.Config{
		Formats: []publish.Format{publish.FormatEPUB},
	}), nil)
	require.NoError(t, err)
	require.True(t, res.Outcomes[0].Success, res.Outcomes[0].Error)
	assert.Empty(t, res.Outcomes[0].Warnings)
}

func TestLoadFont(t *testing.T) {
	ttf, err := LoadFont("../render/testdata/DejaVuSansCondensed.ttf")
	require.NoError(t, err)
	assert.NotEmpty(t, ttf)

	png := filepath.Join(t.TempDir(), "font.ttf")
	require.NoError(t, os.WriteFile(png, testutil.PNG(4, 4), 0o600))
	_, err = LoadFont(png)
	assert.ErrorContains(t, err, "image/png")

	_, err = LoadFont(filepath.Join(t.TempDir(), "missing.ttf"))
	assert.Error(t, err)
}

func TestNew_RenderFontExportsArabic(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	cfg.RenderFontFile = "../render/testdata/DejaVuSansCondensed.ttf"
	a, err := New(context.Background(), cfg, logging.NewNop(), nil)
	require.NoError(t, err)
	defer a.Close()

	book := testutil.SampleBook()
	book.Metadata.Author = "مريم حداد"
	book.Cover.FrontImageRef = testutil.DataURI(testutil.PNG(10, 15))
	book.Cover.BackImageRef = ""
	book.Illustrations = nil
	for _, sp := range book.Layout.Spreads {
		for _, p := range []*entity.Page{sp.Left, sp.Right} {
			if p == nil {
				continue
			}
			var blocks []entity.Block
			for _, b := range p.Blocks {
				if b.Kind == entity.BlockText {
					blocks = append(blocks, b)
				}
			}
			p.Blocks = blocks
		}
	}

	res, err := a.Exports.Run(context.Background(), book, a.ExportConfig(publish.Config{
		Formats: []publish.Format{publish.FormatKDP},
	}), nil)
	require.NoError(t, err)
	require.True(t, res.Outcomes[0].Success, res.Outcomes[0].Error)
	for _, w := range res.Outcomes[0].Warnings {
		assert.NotContains(t, w, "UTF-8 font")
	}

	_, err = New(context.Background(), func() config.Config {
		bad := testConfig(t, config.StoreMemory)
		bad.RenderFontFile = filepath.Join(t.TempDir(), "missing.ttf")
		return bad
	}(), logging.NewNop(), nil)
	assert.Error(t, err)
}
