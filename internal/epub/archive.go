package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
)

const (
	mimetypeName  = "mimetype"
	mimetypeValue = "application/epub+zip"
)

// archive writes the OCF container. The mimetype entry must be written
// first: it is stored, carries no extra field and no data descriptor, so its
// bytes sit at a fixed offset readers can sniff.
type archive struct {
	buf      bytes.Buffer
	zw       *zip.Writer
	modified time.Time
	names    []string
}

func newArchive(modified time.Time) (*archive, error) {
	a := &archive{modified: modified}
	a.zw = zip.NewWriter(&a.buf)
	a.zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	body := []byte(mimetypeValue)
	w, err := a.zw.CreateRaw(&zip.FileHeader{
		Name:               mimetypeName,
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE(body),
		CompressedSize64:   uint64(len(body)),
		UncompressedSize64: uint64(len(body)),
	})
	if err != nil {
		return nil, fmt.Errorf("write mimetype: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return nil, fmt.Errorf("write mimetype: %w", err)
	}
	a.names = append(a.names, mimetypeName)
	return a, nil
}

func (a *archive) add(name string, data []byte) error {
	w, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: a.modified,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	a.names = append(a.names, name)
	return nil
}

func (a *archive) bytes() ([]byte, error) {
	if err := a.zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return a.buf.Bytes(), nil
}
