package publish

import (
	"errors"
	"fmt"
	"strings"

	"bookpublish/internal/entity"
	"bookpublish/internal/imageload"
	"bookpublish/internal/isbn"
	"bookpublish/internal/lulu"

	"github.com/go-playground/validator/v10"
)

// Config selects what one export run produces.
type Config struct {
	Formats []Format `json:"formats" yaml:"formats" validate:"required,min=1,unique,dive,oneof=epub kdp_pdf lulu_pdf"`
	// AssignISBNs allocates ISBNs from the registrant pool for editions
	// that have none.
	AssignISBNs bool `json:"assign_isbns" yaml:"assign_isbns"`
	// ExternalISBNs registers purchased ISBNs, keyed by edition (epub or
	// print). They take precedence over pool assignment.
	ExternalISBNs map[isbn.Format]string `json:"external_isbns,omitempty" yaml:"external_isbns,omitempty" validate:"omitempty,dive,keys,oneof=epub print,endkeys,required"`
	// MaxParallel caps concurrent generators; 0 runs every format at once.
	MaxParallel  int                      `json:"max_parallel,omitempty" yaml:"max_parallel,omitempty" validate:"gte=0,lte=8"`
	ImagePolicy  imageload.Policy         `json:"image_policy,omitempty" yaml:"image_policy,omitempty" validate:"omitempty,oneof=placeholder fail"`
	DPI          int                      `json:"dpi,omitempty" yaml:"dpi,omitempty" validate:"omitempty,gte=72,lte=1200"`
	HeaderFooter *lulu.HeaderFooterConfig `json:"lulu_header_footer,omitempty" yaml:"lulu_header_footer,omitempty"`
}

// ParseFormats reads a comma separated list such as "epub,kdp_pdf".
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f := Format(part)
		if !f.Valid() {
			return nil, &entity.InvalidInputError{Field: "formats", Reason: fmt.Sprintf("unknown format %q", part)}
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, &entity.InvalidInputError{Field: "formats", Reason: "at least one format is required"}
	}
	return out, nil
}

// EditionOf maps an export format onto the edition whose ISBN it carries.
// Both paperback formats share the print ISBN.
func EditionOf(f Format) isbn.Format {
	if f == FormatEPUB {
		return isbn.FormatEPUB
	}
	return isbn.FormatPrint
}

func newValidator() *validator.Validate {
	return validator.New()
}

// validateConfig turns validator errors into an InvalidInputError naming
// the first offending field.
func validateConfig(v *validator.Validate, cfg Config) error {
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &entity.InvalidInputError{
			Field:  fieldName(fe.Namespace()),
			Reason: fmt.Sprintf("failed %q check (value %v)", fe.Tag(), fe.Value()),
		}
	}
	return &entity.InvalidInputError{Field: "config", Reason: err.Error()}
}

func fieldName(ns string) string {
	ns = strings.TrimPrefix(ns, "Config.")
	return strings.ToLower(ns)
}
