// Package imageload fetches every illustration a document needs before
// rendering starts, so drawing never waits on I/O.
package imageload

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sync"

	"bookpublish/internal/entity"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

// Image is a fetched and sniffed illustration.
type Image struct {
	Ref       string
	Data      []byte
	MediaType string // image/png, image/jpeg or image/gif
	Ext       string // with the leading dot
	Width     int
	Height    int
}

// Aspect is width over height.
func (i Image) Aspect() float64 {
	if i.Height == 0 {
		return 1
	}
	return float64(i.Width) / float64(i.Height)
}

var supported = map[string]bool{"image/png": true, "image/jpeg": true, "image/gif": true}

// Decode sniffs the media type and reads the pixel dimensions without
// decoding the whole image.
func Decode(ref string, data []byte) (Image, error) {
	mt := mimetype.Detect(data)
	if !supported[mt.String()] {
		return Image{}, fmt.Errorf("unsupported image type %s", mt.String())
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("decode %s: %w", mt.String(), err)
	}
	return Image{
		Ref:       ref,
		Data:      data,
		MediaType: mt.String(),
		Ext:       mt.Extension(),
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, nil
}

// Set is the outcome of one LoadAll call.
type Set struct {
	Images map[string]Image
	Errors map[string]error
}

// Get returns the image for ref or an *entity.ImageLoadError.
func (s *Set) Get(ref string) (Image, error) {
	if s != nil {
		if img, ok := s.Images[ref]; ok {
			return img, nil
		}
		if err, ok := s.Errors[ref]; ok {
			return Image{}, &entity.ImageLoadError{Ref: ref, Err: err}
		}
	}
	return Image{}, &entity.ImageLoadError{Ref: ref, Err: fmt.Errorf("not loaded")}
}

// Loader fetches images with bounded concurrency.
type Loader struct {
	src   Source
	limit int
	log   *slog.Logger
}

// NewLoader caps in-flight fetches at concurrency (minimum 1).
func NewLoader(src Source, concurrency int, log *slog.Logger) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Loader{src: src, limit: concurrency, log: log}
}

// LoadAll fetches each distinct non-empty ref once. Per-image failures are
// collected in Set.Errors; the returned error is non-nil only when ctx ends.
func (l *Loader) LoadAll(ctx context.Context, refs []string) (*Set, error) {
	set := &Set{Images: map[string]Image{}, Errors: map[string]error{}}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(l.limit)

	seen := map[string]bool{}
	for _, ref := range refs {
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			img, err := l.load(ctx, ref)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				set.Errors[ref] = err
				l.log.Warn("image load failed", "ref", truncateRef(ref), "err", err)
				return nil
			}
			set.Images[ref] = img
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func (l *Loader) load(ctx context.Context, ref string) (Image, error) {
	data, err := l.src.Fetch(ctx, ref)
	if err != nil {
		return Image{}, err
	}
	return Decode(ref, data)
}
