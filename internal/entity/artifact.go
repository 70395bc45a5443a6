package entity

import (
	"fmt"
	"sort"
)

type PageType string

const (
	PageText      PageType = "text"
	PageImage     PageType = "image"
	PageMixed     PageType = "mixed"
	PageBlank     PageType = "blank"
	PageTitle     PageType = "title"
	PageCopyright PageType = "copyright"
)

type Position string

const (
	PositionLeft  Position = "left"
	PositionRight Position = "right"
)

type BlockKind string

const (
	BlockText  BlockKind = "text"
	BlockImage BlockKind = "image"
)

// Block is a single run of content on a page.
type Block struct {
	Kind     BlockKind `json:"kind" yaml:"kind"`
	Text     string    `json:"text,omitempty" yaml:"text,omitempty"`
	ImageRef string    `json:"image_ref,omitempty" yaml:"image_ref,omitempty"`
	Caption  string    `json:"caption,omitempty" yaml:"caption,omitempty"`
}

// Page is one physical interior page of a finalized layout.
type Page struct {
	Number        int      `json:"number" yaml:"number"`
	Type          PageType `json:"type" yaml:"type"`
	Position      Position `json:"position" yaml:"position"`
	Blocks        []Block  `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	ChapterNumber int      `json:"chapter_number,omitempty" yaml:"chapter_number,omitempty"`
	ChapterTitle  string   `json:"chapter_title,omitempty" yaml:"chapter_title,omitempty"`
}

// IsFrontMatter reports whether the page precedes chapter content.
func (p Page) IsFrontMatter() bool {
	return p.ChapterNumber <= 0
}

// Spread is a facing pair of pages. The first spread of a book usually has
// no left page.
type Spread struct {
	Left  *Page `json:"left,omitempty" yaml:"left,omitempty"`
	Right *Page `json:"right,omitempty" yaml:"right,omitempty"`
}

// Layout is the ordered sequence of spreads produced by the layout stage.
type Layout struct {
	Spreads []Spread `json:"spreads" yaml:"spreads"`
}

// Pages flattens the spreads left-then-right.
func (l Layout) Pages() []Page {
	pages := make([]Page, 0, len(l.Spreads)*2)
	for _, s := range l.Spreads {
		if s.Left != nil {
			pages = append(pages, *s.Left)
		}
		if s.Right != nil {
			pages = append(pages, *s.Right)
		}
	}
	return pages
}

// Validate checks page numbering and left/right parity. Left pages are even,
// right pages are odd, and numbers strictly increase.
func (l Layout) Validate() error {
	last := 0
	for i, s := range l.Spreads {
		for _, slot := range []struct {
			page *Page
			want Position
		}{{s.Left, PositionLeft}, {s.Right, PositionRight}} {
			p := slot.page
			if p == nil {
				continue
			}
			field := fmt.Sprintf("layout.spreads[%d].%s", i, slot.want)
			if p.Position != "" && p.Position != slot.want {
				return &InvalidInputError{Field: field, Reason: fmt.Sprintf("page %d is marked %s", p.Number, p.Position)}
			}
			if p.Number <= last {
				return &InvalidInputError{Field: field, Reason: fmt.Sprintf("page number %d does not follow %d", p.Number, last)}
			}
			even := p.Number%2 == 0
			if slot.want == PositionLeft && !even || slot.want == PositionRight && even {
				return &InvalidInputError{Field: field, Reason: fmt.Sprintf("page %d has the wrong parity for a %s page", p.Number, slot.want)}
			}
			last = p.Number
		}
	}
	return nil
}

// Cover carries the wrap-cover inputs.
type Cover struct {
	FrontImageRef string `json:"front_image_ref,omitempty" yaml:"front_image_ref,omitempty"`
	BackImageRef  string `json:"back_image_ref,omitempty" yaml:"back_image_ref,omitempty"`
	SpineText     string `json:"spine_text,omitempty" yaml:"spine_text,omitempty"`
	BackBlurb     string `json:"back_blurb,omitempty" yaml:"back_blurb,omitempty"`
	TrimSize      string `json:"trim_size" yaml:"trim_size"`
	PaperType     string `json:"paper_type,omitempty" yaml:"paper_type,omitempty"`
}

// Chapter is one chapter record of the chapters artifact.
type Chapter struct {
	Number int    `json:"number" yaml:"number"`
	Title  string `json:"title" yaml:"title"`
	Body   string `json:"body" yaml:"body"`
}

// Illustration associates an image with a chapter.
type Illustration struct {
	ChapterNumber int    `json:"chapter_number" yaml:"chapter_number"`
	ImageRef      string `json:"image_ref" yaml:"image_ref"`
	AltText       string `json:"alt_text,omitempty" yaml:"alt_text,omitempty"`
	Caption       string `json:"caption,omitempty" yaml:"caption,omitempty"`
}

// SortedChapters returns a copy of chapters ordered by chapter number.
func SortedChapters(chapters []Chapter) []Chapter {
	out := make([]Chapter, len(chapters))
	copy(out, chapters)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
