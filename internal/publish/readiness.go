package publish

import (
	"fmt"
	"strings"

	"bookpublish/internal/entity"
	"bookpublish/internal/isbn"
	"bookpublish/internal/printspec"
	"bookpublish/internal/textutil"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Check is one readiness finding. Passing checks are reported too.
type Check struct {
	Name     string   `json:"name"`
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message,omitempty"`
}

type FormatReadiness struct {
	Format Format  `json:"format"`
	Ready  bool    `json:"ready"`
	Checks []Check `json:"checks"`
}

// ReadinessReport says, without rendering anything, whether each format
// would export and what it would warn about.
type ReadinessReport struct {
	BookID  string            `json:"book_id"`
	Ready   bool              `json:"ready"`
	Formats []FormatReadiness `json:"formats"`
}

type checker struct {
	checks []Check
}

func (c *checker) add(name string, sev Severity, passed bool, format string, args ...any) {
	ch := Check{Name: name, Passed: passed, Severity: sev}
	if !passed {
		ch.Message = fmt.Sprintf(format, args...)
	}
	c.checks = append(c.checks, ch)
}

func (c *checker) ready() bool {
	for _, ch := range c.checks {
		if !ch.Passed && ch.Severity == SeverityError {
			return false
		}
	}
	return true
}

// CheckReadiness evaluates book against every format in cfg, or against all
// formats when cfg names none.
func CheckReadiness(book entity.Book, cfg Config) ReadinessReport {
	formats := cfg.Formats
	if len(formats) == 0 {
		formats = AllFormats()
	}
	report := ReadinessReport{BookID: book.Metadata.BookID, Ready: true}
	for _, f := range formats {
		var c checker
		c.add("title", SeverityError, strings.TrimSpace(book.Metadata.Title) != "", "book has no title")
		c.add("author", SeverityWarning, strings.TrimSpace(book.Metadata.Author) != "", "no author; metadata will say Unknown")
		checkISBN(&c, EditionOf(f), cfg)

		switch f {
		case FormatEPUB:
			checkEPUB(&c, book)
		case FormatKDP:
			checkPrint(&c, book, printspec.KDP())
		case FormatLulu:
			checkPrint(&c, book, printspec.Lulu())
		default:
			c.add("format", SeverityError, false, "unknown format %q", f)
		}

		fr := FormatReadiness{Format: f, Ready: c.ready(), Checks: c.checks}
		report.Ready = report.Ready && fr.Ready
		report.Formats = append(report.Formats, fr)
	}
	return report
}

func checkISBN(c *checker, edition isbn.Format, cfg Config) {
	code, external := cfg.ExternalISBNs[edition]
	switch {
	case external:
		_, err := isbn.ToISBN13(code)
		c.add("isbn", SeverityError, err == nil, "%v", err)
	case cfg.AssignISBNs:
		c.add("isbn", SeverityWarning, true, "")
	default:
		c.add("isbn", SeverityWarning, false, "no %s ISBN will be assigned", edition)
	}
}

func checkEPUB(c *checker, book entity.Book) {
	chapters := 0
	for _, ch := range book.Chapters {
		if len(textutil.Paragraphs(ch.Body)) > 0 || len(book.IllustrationsFor(ch.Number)) > 0 {
			chapters++
		}
	}
	c.add("chapters", SeverityError, chapters > 0, "book has no chapter text or illustrations")
	c.add("cover_art", SeverityWarning, book.Cover.FrontImageRef != "", "no cover image; readers will show a generated cover")
	for _, ill := range book.Illustrations {
		if ill.AltText == "" && ill.Caption == "" {
			c.add("alt_text", SeverityWarning, false, "illustration %s has no alt text", textutil.Truncate(ill.ImageRef, 60))
			return
		}
	}
	c.add("alt_text", SeverityWarning, true, "")
}

func checkPrint(c *checker, book entity.Book, profile printspec.Profile) {
	trim, err := profile.RequireTrimSize(book.Cover.TrimSize)
	c.add("trim_size", SeverityError, err == nil, "%v", err)

	layoutErr := book.Layout.Validate()
	c.add("layout", SeverityError, layoutErr == nil, "%v", layoutErr)

	pages := book.PageCount()
	if err == nil {
		paper := printspec.PaperType(book.Cover.PaperType)
		v := profile.ValidatePaperPageCount(pages, trim, paper)
		c.add("page_count", SeverityError, v.Valid, "%s", v.Reason)

		// CoverSpecs rejects the same page counts, so only run it on a valid one.
		if v.Valid {
			if specs, specErr := profile.CoverSpecs(pages, trim, paper, 0); specErr != nil {
				c.add("cover_specs", SeverityError, false, "%v", specErr)
			} else {
				c.add("spine_text", SeverityWarning, specs.SpineTextAllowed,
					"spine is %.3fin wide, too narrow for spine text", specs.SpineWidthInches)
			}
		}
	}

	c.add("front_cover", SeverityWarning, book.Cover.FrontImageRef != "", "no front cover art; a placeholder will be printed")
	c.add("back_cover", SeverityWarning, book.Cover.BackImageRef != "", "no back cover art")
	c.add("blurb", SeverityWarning, strings.TrimSpace(book.Cover.BackBlurb) != "", "no back cover blurb")
}
