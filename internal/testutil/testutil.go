package testutil

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"bookpublish/internal/entity"
)

// PNG encodes a solid w×h image.
func PNG(w, h int) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, solid(w, h))
	return buf.Bytes()
}

// JPEG encodes a solid w×h image.
func JPEG(w, h int) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, solid(w, h), &jpeg.Options{Quality: 80})
	return buf.Bytes()
}

// DataURI wraps a PNG in a base64 data: URI.
func DataURI(pngData []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData)
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 120, A: 255})
		}
	}
	return img
}

// MapSource serves images from memory. Unknown refs fail like a 404.
type MapSource map[string][]byte

func (m MapSource) Fetch(_ context.Context, ref string) ([]byte, error) {
	b, ok := m[ref]
	if !ok {
		return nil, fmt.Errorf("%s: not found", ref)
	}
	return b, nil
}

// Sample image references used by SampleBook.
const (
	FrontRef = "img/front.png"
	BackRef  = "img/back.jpg"
	Ch1Ref   = "img/ch1.png"
	Ch2Ref   = "img/ch2.png"
	Ch3Ref   = "img/ch3.png"
)

// SampleImages resolves every reference of SampleBook.
func SampleImages() MapSource {
	return MapSource{
		FrontRef: PNG(60, 90),
		BackRef:  JPEG(60, 90),
		Ch1Ref:   PNG(40, 30),
		Ch2Ref:   PNG(30, 40),
		Ch3Ref:   PNG(50, 50),
	}
}

// BuildLayout numbers pages from 1 and places them in spreads: page 1 alone
// on the right, then facing even/odd pairs.
func BuildLayout(pages []entity.Page) entity.Layout {
	var layout entity.Layout
	var pending *entity.Page
	for i := range pages {
		p := pages[i]
		p.Number = i + 1
		if p.Number%2 == 0 {
			p.Position = entity.PositionLeft
			pending = &p
			continue
		}
		p.Position = entity.PositionRight
		layout.Spreads = append(layout.Spreads, entity.Spread{Left: pending, Right: &p})
		pending = nil
	}
	if pending != nil {
		layout.Spreads = append(layout.Spreads, entity.Spread{Left: pending})
	}
	return layout
}

func textPage(ch entity.Chapter, text string) entity.Page {
	return entity.Page{
		Type:          entity.PageText,
		ChapterNumber: ch.Number,
		ChapterTitle:  ch.Title,
		Blocks:        []entity.Block{{Kind: entity.BlockText, Text: text}},
	}
}

func imagePage(ch entity.Chapter, ref, caption string) entity.Page {
	return entity.Page{
		Type:          entity.PageImage,
		ChapterNumber: ch.Number,
		ChapterTitle:  ch.Title,
		Blocks:        []entity.Block{{Kind: entity.BlockImage, ImageRef: ref, Caption: caption}},
	}
}

// SampleBook is a 32 page, three chapter picture book on a 6x9 trim.
func SampleBook() entity.Book {
	chapters := []entity.Chapter{
		{Number: 1, Title: "The Lantern", Body: "Amina found a lantern in the attic.\n\nIt was dusty & old, but it <still> glowed."},
		{Number: 2, Title: "The Market", Body: "At the market, Yusuf shared his dates with everyone.\n\nSharing made the basket feel lighter."},
		{Number: 3, Title: "Home Again", Body: "They walked home under the stars.\n\nGrandmother was waiting with warm bread."},
	}
	paragraph := func(ch entity.Chapter, i int) string {
		return strings.Split(ch.Body, "\n\n")[i]
	}

	pages := []entity.Page{
		{Type: entity.PageTitle, Blocks: []entity.Block{{Kind: entity.BlockText, Text: "The Little Lantern"}}},
		{Type: entity.PageCopyright, Blocks: []entity.Block{{Kind: entity.BlockText, Text: "Copyright 2026 Noor Books. All rights reserved."}}},
		textPage(chapters[0], paragraph(chapters[0], 0)),
		imagePage(chapters[0], Ch1Ref, "The lantern"),
		textPage(chapters[0], paragraph(chapters[0], 1)),
		{
			Type:          entity.PageMixed,
			ChapterNumber: 2,
			ChapterTitle:  chapters[1].Title,
			Blocks: []entity.Block{
				{Kind: entity.BlockText, Text: paragraph(chapters[1], 0)},
				{Kind: entity.BlockImage, ImageRef: Ch2Ref},
			},
		},
		textPage(chapters[1], paragraph(chapters[1], 1)),
		textPage(chapters[2], paragraph(chapters[2], 0)),
		imagePage(chapters[2], Ch3Ref, "Under the stars"),
	}
	for len(pages) < 30 {
		pages = append(pages, textPage(chapters[2], paragraph(chapters[2], 1)))
	}
	pages = append(pages, entity.Page{Type: entity.PageBlank}, entity.Page{Type: entity.PageBlank})

	return entity.Book{
		Metadata: entity.Metadata{
			BookID:      "book-lantern",
			Title:       "The Little Lantern",
			Subtitle:    "A Story of Sharing",
			Author:      "Maryam Haddad",
			Language:    "en",
			Publisher:   "Noor Books",
			Description: "A gentle bedtime story about sharing.",
		},
		Layout: BuildLayout(pages),
		Cover: entity.Cover{
			FrontImageRef: FrontRef,
			BackImageRef:  BackRef,
			SpineText:     "The Little Lantern",
			BackBlurb:     "Amina and Yusuf learn that light grows when it is shared.",
			TrimSize:      "6x9",
			PaperType:     "white",
		},
		Chapters: chapters,
		Illustrations: []entity.Illustration{
			{ChapterNumber: 1, ImageRef: Ch1Ref, AltText: "A glowing lantern", Caption: "The lantern"},
			{ChapterNumber: 2, ImageRef: Ch2Ref, AltText: "A busy market"},
			{ChapterNumber: 3, ImageRef: Ch3Ref, AltText: "A starry sky"},
		},
	}
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}
