package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookpublish/internal/app"
	"bookpublish/internal/config"
	"bookpublish/internal/entity"
	"bookpublish/internal/logging"
	"bookpublish/internal/publish"
	"bookpublish/internal/testutil"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Config{
		ISBNStore:             config.StoreMemory,
		ISBNPrefix:            "978-1-7361",
		ImageFetchConcurrency: 2,
		ImageFetchTimeout:     time.Second,
		ImageRoot:             t.TempDir(),
		RenderDPI:             72,
		ExportTimeout:         time.Minute,
		MaxBodyBytes:          8 << 20,
		RateLimitRPS:          100,
		RateLimitBurst:        100,
	}
	reg := prometheus.NewRegistry()
	a, err := app.New(context.Background(), cfg, logging.NewNop(), reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return newRouter(ctx, a, reg)
}

// inlineBook replaces every image reference with a data: URI so exports
// run without network or disk access.
func inlineBook() entity.Book {
	book := testutil.SampleBook()
	images := testutil.SampleImages()
	inline := func(ref string) string {
		if ref == "" {
			return ""
		}
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(images[ref])
	}
	book.Cover.FrontImageRef = inline(book.Cover.FrontImageRef)
	book.Cover.BackImageRef = ""
	for i := range book.Illustrations {
		book.Illustrations[i].ImageRef = inline(book.Illustrations[i].ImageRef)
	}
	for _, s := range book.Layout.Spreads {
		for _, p := range []*entity.Page{s.Left, s.Right} {
			if p == nil {
				continue
			}
			for j := range p.Blocks {
				p.Blocks[j].ImageRef = inline(p.Blocks[j].ImageRef)
			}
		}
	}
	return book
}

func serve(h http.Handler, r *http.Request) testutil.RecordResponse {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return testutil.RecordHTTPResponse(w)
}

func TestHealthAndReady(t *testing.T) {
	h := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	}
}

func TestExportRoute(t *testing.T) {
	h := newTestServer(t)

	req := testutil.NewRequest(http.MethodPost, "/v1/exports", publish.ExportRequest{
		Book:   inlineBook(),
		Config: publish.Config{Formats: []publish.Format{publish.FormatEPUB, publish.FormatKDP}, AssignISBNs: true},
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool                 `json:"success"`
		Data    publish.ExportResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.Outcomes, 2)
	epubOut := resp.Data.Outcomes[0]
	require.True(t, epubOut.Success, epubOut.Error)
	assert.True(t, strings.HasPrefix(string(epubOut.Files[0].Data), "PK"))
	assert.Equal(t, "9781736100011", epubOut.ISBN)
	assert.Len(t, resp.Data.Outcomes[1].Files, 2)

	run := serve(h, httptest.NewRequest(http.MethodGet, "/v1/exports/"+resp.Data.RunID, nil))
	assert.Equal(t, http.StatusOK, run.Code)

	missing := serve(h, httptest.NewRequest(http.MethodGet, "/v1/exports/nope", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)

	metrics := httptest.NewRecorder()
	h.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metrics.Body.String(), `bookpublish_exports_total{state="done"} 1`)
}

func TestExportRoute_InvalidConfig(t *testing.T) {
	h := newTestServer(t)

	resp := serve(h, testutil.NewRequest(http.MethodPost, "/v1/exports", publish.ExportRequest{
		Book:   inlineBook(),
		Config: publish.Config{Formats: []publish.Format{"mobi"}},
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, false, resp.Body["success"])
}

func TestExportRoute_MethodNotAllowed(t *testing.T) {
	h := newTestServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/exports", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestReadinessRoute(t *testing.T) {
	h := newTestServer(t)

	book := inlineBook()
	book.Cover.TrimSize = "7.5x7.5"
	resp := serve(h, testutil.NewRequest(http.MethodPost, "/v1/readiness", publish.ReadinessRequest{
		Book:    book,
		Formats: []publish.Format{publish.FormatKDP, publish.FormatLulu},
	}))
	require.Equal(t, http.StatusOK, resp.Code)
	data := resp.Body["data"].(map[string]interface{})
	assert.Equal(t, false, data["ready"])
	formats := data["formats"].([]interface{})
	assert.Equal(t, false, formats[0].(map[string]interface{})["ready"])
	assert.Equal(t, true, formats[1].(map[string]interface{})["ready"])
}

func TestISBNRoutes(t *testing.T) {
	h := newTestServer(t)

	first := serve(h, testutil.NewRequest(http.MethodPost, "/v1/books/b1/isbns", map[string]string{"format": "print"}))
	require.Equal(t, http.StatusOK, first.Code)
	again := serve(h, testutil.NewRequest(http.MethodPost, "/v1/books/b1/isbns", map[string]string{"format": "print"}))
	assert.Equal(t, first.Body["data"], again.Body["data"])

	registered := serve(h, testutil.NewRequest(http.MethodPost, "/v1/books/b1/isbns", map[string]string{"format": "epub", "isbn": "0-306-40615-2"}))
	require.Equal(t, http.StatusOK, registered.Code)
	assert.Equal(t, "9780306406157", registered.Body["data"].(map[string]interface{})["isbn13"])

	conflict := serve(h, testutil.NewRequest(http.MethodPost, "/v1/books/b1/isbns", map[string]string{"format": "epub", "isbn": "9781736100011"}))
	assert.Equal(t, http.StatusConflict, conflict.Code)

	bad := serve(h, testutil.NewRequest(http.MethodPost, "/v1/books/b1/isbns", map[string]string{"format": "epub", "isbn": "9780306460157"}))
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)

	list := serve(h, httptest.NewRequest(http.MethodGet, "/v1/books/b1/isbns", nil))
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, list.Body["data"], 2)

	lookup := serve(h, httptest.NewRequest(http.MethodGet, "/v1/isbns/0306406152", nil))
	data := lookup.Body["data"].(map[string]interface{})
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, "978-0-306-40615-7", data["hyphenated"])

	del := serve(h, httptest.NewRequest(http.MethodDelete, "/v1/books/b1/isbns", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, del.Code)
}
