package imageload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// Source fetches the raw bytes behind an image reference.
type Source interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, ref string) ([]byte, error)

func (f SourceFunc) Fetch(ctx context.Context, ref string) ([]byte, error) { return f(ctx, ref) }

// ErrUnsupportedRef is returned for references no source can resolve.
var ErrUnsupportedRef = errors.New("unsupported image reference")

// MultiSource dispatches on the reference scheme: http(s) URLs, data: URIs,
// and everything else as a path below the file root. A nil member disables
// that scheme.
type MultiSource struct {
	HTTP Source
	Data Source
	File Source
}

func (m MultiSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	var src Source
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		src = m.HTTP
	case strings.HasPrefix(ref, "data:"):
		src = m.Data
	default:
		src = m.File
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRef, truncateRef(ref))
	}
	return src.Fetch(ctx, ref)
}

// DataURISource decodes RFC 2397 data URIs.
type DataURISource struct{}

func (DataURISource) Fetch(_ context.Context, ref string) ([]byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: not a data URI", ErrUnsupportedRef)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("data URI has no payload")
	}
	if strings.HasSuffix(header, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URI: %w", err)
		}
		return b, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}
	return []byte(s), nil
}

// FileSource reads images below Root. References may not escape it.
type FileSource struct {
	Root    string
	MaxSize int64
}

func (f FileSource) Fetch(_ context.Context, ref string) ([]byte, error) {
	name := strings.TrimPrefix(ref, "file://")
	name = strings.TrimPrefix(name, "/")
	root, err := os.OpenRoot(f.Root)
	if err != nil {
		return nil, fmt.Errorf("open image root: %w", err)
	}
	defer root.Close()

	file, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limit := f.MaxSize
	if limit <= 0 {
		limit = defaultMaxSize
	}
	return readLimited(file, limit)
}

const defaultMaxSize = 32 << 20

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("image larger than %d bytes", limit)
	}
	return b, nil
}

func truncateRef(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "..."
	}
	return ref
}
