package entity

// Metadata describes the book being exported.
type Metadata struct {
	BookID      string `json:"book_id" yaml:"book_id" validate:"required"`
	Title       string `json:"title" yaml:"title" validate:"required"`
	Subtitle    string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	Publisher   string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Book bundles the finished artifacts produced upstream. It is read-only to
// every generator.
type Book struct {
	Metadata      Metadata       `json:"metadata" yaml:"metadata" validate:"required"`
	Layout        Layout         `json:"layout" yaml:"layout"`
	Cover         Cover          `json:"cover" yaml:"cover"`
	Chapters      []Chapter      `json:"chapters" yaml:"chapters"`
	Illustrations []Illustration `json:"illustrations,omitempty" yaml:"illustrations,omitempty"`
}

// LanguageOrDefault returns the BCP 47 language tag, "en" when unset.
func (m Metadata) LanguageOrDefault() string {
	if m.Language == "" {
		return "en"
	}
	return m.Language
}

// PageCount is the number of interior pages in the layout.
func (b Book) PageCount() int {
	return len(b.Layout.Pages())
}

// IllustrationsFor returns the illustrations associated with a chapter, in
// input order.
func (b Book) IllustrationsFor(chapterNumber int) []Illustration {
	var out []Illustration
	for _, ill := range b.Illustrations {
		if ill.ChapterNumber == chapterNumber {
			out = append(out, ill)
		}
	}
	return out
}

// ProgressFunc receives sub-progress from a generator.
type ProgressFunc func(phase string, percent int)

// Report calls fn when it is set.
func (fn ProgressFunc) Report(phase string, percent int) {
	if fn != nil {
		fn(phase, percent)
	}
}
