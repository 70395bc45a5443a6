package render

import (
	"bytes"
	"fmt"
	"time"

	"bookpublish/internal/imageload"
	"bookpublish/internal/printspec"

	"github.com/jung-kurt/gofpdf"
)

// DocumentInfo fills the PDF information dictionary.
type DocumentInfo struct {
	Title   string
	Author  string
	Subject string
	Created time.Time
}

// PDFCanvas renders to a PDF document with gofpdf. Text uses the core fonts
// with cp1252 translation unless a UTF-8 font is embedded.
type PDFCanvas struct {
	pdf        *gofpdf.Fpdf
	tr         func(string) string
	font       Font
	utf8Font   []byte
	registered map[string]string
	pages      int
}

// utf8Family is the name the embedded face is registered under.
const utf8Family = "bookface"

type PDFOption func(*PDFCanvas)

// WithUTF8Font embeds the TrueType font ttf and draws all text with it,
// whatever family and style is asked for. Runes outside cp1252 then keep
// their glyphs. Arabic shaping and right-to-left ordering are not applied.
func WithUTF8Font(ttf []byte) PDFOption {
	return func(c *PDFCanvas) { c.utf8Font = ttf }
}

// NewPDFCanvas starts an empty document. Pages are added with NewPage.
func NewPDFCanvas(info DocumentInfo, opts ...PDFOption) *PDFCanvas {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "in",
		Size:           gofpdf.SizeType{Wd: 8.5, Ht: 11},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	pdf.SetCreator("bookpublish", true)
	if info.Title != "" {
		pdf.SetTitle(info.Title, true)
	}
	if info.Author != "" {
		pdf.SetAuthor(info.Author, true)
	}
	if info.Subject != "" {
		pdf.SetSubject(info.Subject, true)
	}
	if !info.Created.IsZero() {
		pdf.SetCreationDate(info.Created)
	}

	c := &PDFCanvas{
		pdf:        pdf,
		tr:         pdf.UnicodeTranslatorFromDescriptor(""),
		registered: map[string]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.utf8Font) > 0 {
		pdf.AddUTF8FontFromBytes(utf8Family, "", c.utf8Font)
		c.tr = func(s string) string { return s }
	}
	c.SetFont(Font{Family: "Times", Size: 12})
	return c
}

// CanRender reports whether text containing r keeps its glyph. The core
// fonts only cover cp1252; the rest is printed as dots.
func (c *PDFCanvas) CanRender(r rune) bool {
	if len(c.utf8Font) > 0 {
		return true
	}
	return InCP1252(r)
}

func (c *PDFCanvas) NewPage(size printspec.Size) {
	c.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: size.Width, Ht: size.Height})
	c.pages++
}

func (c *PDFCanvas) SetTrimBox(box Rect) {
	c.pdf.SetPageBox("trim", box.X, box.Y, box.W, box.H)
}

func (c *PDFCanvas) SetFont(f Font) {
	if f.Family == "" {
		f.Family = "Times"
	}
	if f.Size <= 0 {
		f.Size = 12
	}
	c.font = f
	if len(c.utf8Font) > 0 {
		// one regular face stands in for every family and style
		c.pdf.SetFont(utf8Family, "", f.Size)
		return
	}
	c.pdf.SetFont(f.Family, f.Style, f.Size)
}

func (c *PDFCanvas) SetTextColor(col Color) {
	c.pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
}

func (c *PDFCanvas) MeasureText(s string) float64 {
	return c.pdf.GetStringWidth(c.tr(s))
}

func (c *PDFCanvas) DrawText(x, y float64, s string) {
	c.pdf.Text(x, y, c.tr(s))
}

func (c *PDFCanvas) DrawTextRotated(cx, cy, angle float64, s string) {
	w := c.MeasureText(s)
	c.pdf.TransformBegin()
	c.pdf.TransformRotate(angle, cx, cy)
	// Cap height is roughly 0.7 of the em; centre it on cy.
	c.pdf.Text(cx-w/2, cy+c.font.Size/72*0.35, c.tr(s))
	c.pdf.TransformEnd()
}

func imageType(mediaType string) (string, error) {
	switch mediaType {
	case "image/png":
		return "PNG", nil
	case "image/jpeg":
		return "JPG", nil
	case "image/gif":
		return "GIF", nil
	default:
		return "", fmt.Errorf("pdf cannot embed %s", mediaType)
	}
}

func (c *PDFCanvas) register(img imageload.Image) (string, gofpdf.ImageOptions, error) {
	typ, err := imageType(img.MediaType)
	if err != nil {
		return "", gofpdf.ImageOptions{}, err
	}
	opts := gofpdf.ImageOptions{ImageType: typ}
	if name, ok := c.registered[img.Ref]; ok {
		return name, opts, nil
	}
	name := fmt.Sprintf("img%d", len(c.registered)+1)
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if c.pdf.Err() {
		return "", opts, fmt.Errorf("register image %q: %w", img.Ref, c.pdf.Error())
	}
	c.registered[img.Ref] = name
	return name, opts, nil
}

func (c *PDFCanvas) DrawImage(img imageload.Image, box Rect, fit Fit) error {
	name, opts, err := c.register(img)
	if err != nil {
		return err
	}
	r := FitRect(img.Aspect(), box, fit)
	if fit == FitCover {
		c.pdf.ClipRect(box.X, box.Y, box.W, box.H, false)
		c.pdf.ImageOptions(name, r.X, r.Y, r.W, r.H, false, opts, 0, "")
		c.pdf.ClipEnd()
	} else {
		c.pdf.ImageOptions(name, r.X, r.Y, r.W, r.H, false, opts, 0, "")
	}
	return nil
}

func (c *PDFCanvas) FillRect(box Rect, col Color) {
	c.pdf.SetFillColor(int(col.R), int(col.G), int(col.B))
	c.pdf.Rect(box.X, box.Y, box.W, box.H, "F")
}

// PageCount is the number of pages added so far.
func (c *PDFCanvas) PageCount() int { return c.pages }

func (c *PDFCanvas) Bytes() ([]byte, error) {
	if c.pages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		return nil, fmt.Errorf("write pdf: missing header")
	}
	return buf.Bytes(), nil
}
