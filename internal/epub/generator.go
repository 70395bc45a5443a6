// Package epub renders a book as a reflowable EPUB 3 container.
package epub

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bookpublish/internal/entity"
	"bookpublish/internal/imageload"
	"bookpublish/internal/isbn"
	"bookpublish/internal/textutil"

	"github.com/google/uuid"
)

const (
	// MediaType is the content type of a generated container.
	MediaType = "application/epub+zip"

	opfNamespace = "http://www.idpf.org/2007/opf"
	dcNamespace  = "http://purl.org/dc/elements/1.1/"
	xhtmlType    = "application/xhtml+xml"
)

// Options tune one Generate call.
type Options struct {
	// ISBN13 becomes the urn:isbn identifier. Without it a stable urn:uuid
	// derived from the book ID is used.
	ISBN13      string
	Modified    time.Time
	ImagePolicy imageload.Policy
	Progress    entity.ProgressFunc
}

type Output struct {
	Data     []byte
	Warnings []string
}

type Generator struct {
	loader *imageload.Loader
	log    *slog.Logger
	now    func() time.Time
}

func NewGenerator(loader *imageload.Loader, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{loader: loader, log: log, now: time.Now}
}

// FileName is the download name of the container for a book.
func FileName(book entity.Book) string {
	return book.Metadata.BookID + ".epub"
}

// Identifier returns the package identifier written into dc:identifier.
func Identifier(bookID, isbn13 string) string {
	if isbn13 != "" {
		return "urn:isbn:" + isbn.Normalize(isbn13)
	}
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte("bookpublish:book:"+bookID)).String()
}

type chapterDoc struct {
	chapter entity.Chapter
	id      string
	href    string
	figures []figure
}

type entry struct {
	name string
	data []byte
}

type imageItem struct {
	id    string
	href  string
	img   imageload.Image
	cover bool
}

// Generate builds the whole container in memory. Nothing is returned unless
// every entry was written.
func (g *Generator) Generate(ctx context.Context, book entity.Book, opts Options) (Output, error) {
	var out Output
	meta := book.Metadata
	if strings.TrimSpace(meta.Title) == "" {
		return out, &entity.InvalidInputError{Field: "metadata.title", Reason: "must not be empty"}
	}
	if opts.ISBN13 != "" && !isbn.Validate13(opts.ISBN13) {
		return out, &entity.InvalidISBNError{Value: opts.ISBN13, Reason: "check digit mismatch"}
	}
	chapters := entity.SortedChapters(book.Chapters)
	if len(chapters) == 0 {
		return out, entity.ErrEmptyBook
	}

	refs := []string{book.Cover.FrontImageRef}
	for _, ill := range book.Illustrations {
		refs = append(refs, ill.ImageRef)
	}
	opts.Progress.Report("loading_images", 10)
	images, err := g.loader.LoadAll(ctx, refs)
	if err != nil {
		return out, err
	}

	var items []imageItem
	byRef := map[string]imageItem{}
	if ref := book.Cover.FrontImageRef; ref != "" {
		img, ok, warning, err := opts.ImagePolicy.Resolve(images, ref, "cover image")
		if err != nil {
			return out, err
		}
		if ok {
			item := imageItem{id: "cover-image", href: "images/cover" + img.Ext, img: img, cover: true}
			items = append(items, item)
			byRef[ref] = item
		} else {
			out.Warnings = append(out.Warnings, warning)
		}
	} else {
		out.Warnings = append(out.Warnings, "no cover image; readers will show a generated cover")
	}

	var docs []chapterDoc
	for _, ch := range chapters {
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}
		n := len(docs) + 1
		doc := chapterDoc{chapter: ch, id: fmt.Sprintf("chapter%d", n), href: fmt.Sprintf("chapter%d.xhtml", n)}
		for k, ill := range book.IllustrationsFor(ch.Number) {
			item, seen := byRef[ill.ImageRef]
			if !seen {
				img, ok, _, err := opts.ImagePolicy.Resolve(images, ill.ImageRef, "illustration")
				if err != nil {
					return Output{}, err
				}
				if !ok {
					_, loadErr := images.Get(ill.ImageRef)
					out.Warnings = append(out.Warnings, fmt.Sprintf("chapter %d illustration: %v; omitted", ch.Number, loadErr))
					continue
				}
				item = imageItem{id: fmt.Sprintf("img-ch%d-%d", n, k+1), href: fmt.Sprintf("images/ch%d-%d%s", n, k+1, img.Ext), img: img}
				items = append(items, item)
				byRef[ill.ImageRef] = item
			}
			alt := ill.AltText
			if alt == "" {
				alt = ill.Caption
			}
			doc.figures = append(doc.figures, figure{src: item.href, alt: alt, caption: ill.Caption})
		}
		if len(textutil.Paragraphs(ch.Body)) == 0 && len(doc.figures) == 0 {
			out.Warnings = append(out.Warnings, fmt.Sprintf("chapter %d %q has no text or illustrations and was skipped", ch.Number, ch.Title))
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return Output{}, entity.ErrEmptyBook
	}

	modified := opts.Modified
	if modified.IsZero() {
		modified = g.now()
	}
	modified = modified.UTC().Truncate(time.Second)

	pkg := buildPackage(meta, Identifier(meta.BookID, opts.ISBN13), modified, docs, items)
	if strings.TrimSpace(meta.Author) == "" {
		out.Warnings = append(out.Warnings, "no author; dc:creator set to Unknown")
	}
	opf, err := pkg.marshal()
	if err != nil {
		return Output{}, err
	}

	opts.Progress.Report("writing", 60)
	lang := meta.LanguageOrDefault()
	entries := make([]navEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, navEntry{href: d.href, title: d.chapter.Title})
	}

	ar, err := newArchive(modified)
	if err != nil {
		return Output{}, err
	}
	files := []entry{
		{"META-INF/container.xml", []byte(containerXML)},
		{"OEBPS/content.opf", opf},
		{"OEBPS/nav.xhtml", navDocument(lang, meta.Title, entries)},
		{"OEBPS/stylesheet.css", []byte(stylesheet)},
	}
	for _, d := range docs {
		files = append(files, entry{"OEBPS/" + d.href, chapterDocument(lang, d.chapter.Number, d.chapter.Title, textutil.Paragraphs(d.chapter.Body), d.figures)})
	}
	for _, it := range items {
		files = append(files, entry{"OEBPS/" + it.href, it.img.Data})
	}
	for _, f := range files {
		if err := ar.add(f.name, f.data); err != nil {
			return Output{}, err
		}
	}
	data, err := ar.bytes()
	if err != nil {
		return Output{}, err
	}

	out.Data = data
	opts.Progress.Report("done", 100)
	g.log.Info("epub generated", "book_id", meta.BookID, "chapters", len(docs), "images", len(items), "bytes", len(data))
	return out, nil
}

func buildPackage(meta entity.Metadata, identifier string, modified time.Time, docs []chapterDoc, items []imageItem) opfPackage {
	creator := strings.TrimSpace(meta.Author)
	if creator == "" {
		creator = "Unknown"
	}
	md := opfMetadata{
		XmlnsDC:     dcNamespace,
		Identifier:  opfText{ID: "pub-id", Value: identifier},
		Titles:      []opfText{{ID: "title", Value: meta.Title}},
		Creator:     opfText{ID: "creator", Value: creator},
		Language:    meta.LanguageOrDefault(),
		Publisher:   meta.Publisher,
		Description: meta.Description,
		Metas: []opfMeta{
			{Property: "dcterms:modified", Value: modified.Format("2006-01-02T15:04:05Z")},
			{Refines: "#title", Property: "title-type", Value: "main"},
			{Refines: "#creator", Property: "role", Value: "aut"},
		},
	}
	if meta.Subtitle != "" {
		md.Titles = append(md.Titles, opfText{ID: "subtitle", Value: meta.Subtitle})
		md.Metas = append(md.Metas, opfMeta{Refines: "#subtitle", Property: "title-type", Value: "subtitle"})
	}

	manifest := []opfItem{
		{ID: "nav", Href: "nav.xhtml", MediaType: xhtmlType, Properties: "nav"},
		{ID: "css", Href: "stylesheet.css", MediaType: "text/css"},
	}
	spine := make([]opfRef, 0, len(docs))
	for _, d := range docs {
		manifest = append(manifest, opfItem{ID: d.id, Href: d.href, MediaType: xhtmlType})
		spine = append(spine, opfRef{IDRef: d.id})
	}
	for _, it := range items {
		item := opfItem{ID: it.id, Href: it.href, MediaType: it.img.MediaType}
		if it.cover {
			item.Properties = "cover-image"
			md.Metas = append(md.Metas, opfMeta{Name: "cover", Content: it.id})
		}
		manifest = append(manifest, item)
	}

	return opfPackage{
		Xmlns:            opfNamespace,
		Version:          "3.0",
		UniqueIdentifier: "pub-id",
		Metadata:         md,
		Manifest:         manifest,
		Spine:            spine,
	}
}
