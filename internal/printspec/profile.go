package printspec

import (
	"fmt"

	"bookpublish/internal/entity"
)

type Vendor string

const (
	VendorKDP  Vendor = "kdp"
	VendorLulu Vendor = "lulu"
)

type PaperType string

const (
	PaperWhite         PaperType = "white"
	PaperCream         PaperType = "cream"
	PaperStandardColor PaperType = "standard-color"
	PaperPremiumColor  PaperType = "premium-color"
)

// Bleed is the standard extension past the trim line on every bled edge.
const Bleed = 0.125

// DefaultDPI is the raster resolution print vendors expect for artwork.
const DefaultDPI = 300

type paperSpec struct {
	perPageInches float64
	maxPages      int
}

// Profile holds one vendor's published print rules.
type Profile struct {
	Vendor Vendor

	trimSizes []TrimSize
	paper     map[PaperType]paperSpec
	minPages  int
	// maxLargeTrimPages caps page counts for trims wider than 6.12in or
	// taller than 9in.
	maxLargeTrimPages int
	// coverAllowance is added to the spine for the cover board wrap.
	coverAllowance float64
	// spineTextMinWidth is the narrowest spine the vendor prints text on.
	spineTextMinWidth float64
	// interiorBleedAllEdges is true when interior bleed is added to all four
	// edges, false when only the outside, top and bottom edges bleed.
	interiorBleedAllEdges bool
}

var kdpProfile = Profile{
	Vendor: VendorKDP,
	trimSizes: []TrimSize{
		{5, 8}, {5.06, 7.81}, {5.25, 8}, {5.5, 8.5}, {6, 9}, {6.14, 9.21},
		{6.69, 9.61}, {7, 10}, {7.44, 9.69}, {7.5, 9.25}, {8, 10}, {8.25, 6},
		{8.25, 8.25}, {8.5, 8.5}, {8.5, 11}, {8.27, 11.69},
	},
	paper: map[PaperType]paperSpec{
		PaperWhite:         {perPageInches: 0.002252, maxPages: 828},
		PaperCream:         {perPageInches: 0.0025, maxPages: 776},
		PaperStandardColor: {perPageInches: 0.002252, maxPages: 600},
		PaperPremiumColor:  {perPageInches: 0.002347, maxPages: 828},
	},
	minPages:          24,
	maxLargeTrimPages: 600,
	spineTextMinWidth: 0.175,
}

var luluProfile = Profile{
	Vendor: VendorLulu,
	trimSizes: []TrimSize{
		{4.25, 6.87}, {5, 8}, {5.5, 8.5}, {5.83, 8.27}, {6, 9}, {6.14, 9.21},
		{6.69, 9.61}, {7, 10}, {7.5, 7.5}, {8.5, 8.5}, {8.5, 11}, {8.27, 11.69},
		{9, 7}, {11, 8.5},
	},
	paper: map[PaperType]paperSpec{
		PaperWhite:         {perPageInches: 0.0025, maxPages: 800},
		PaperCream:         {perPageInches: 0.0025, maxPages: 800},
		PaperStandardColor: {perPageInches: 0.0025, maxPages: 800},
		PaperPremiumColor:  {perPageInches: 0.0026, maxPages: 800},
	},
	minPages:              32,
	maxLargeTrimPages:     740,
	coverAllowance:        0.06,
	spineTextMinWidth:     0.25,
	interiorBleedAllEdges: true,
}

// KDP returns Amazon KDP's paperback profile.
func KDP() Profile { return kdpProfile }

// Lulu returns Lulu's paperback profile.
func Lulu() Profile { return luluProfile }

// ForVendor looks a profile up by name.
func ForVendor(v Vendor) (Profile, error) {
	switch v {
	case VendorKDP:
		return kdpProfile, nil
	case VendorLulu:
		return luluProfile, nil
	default:
		return Profile{}, &entity.InvalidInputError{Field: "vendor", Reason: fmt.Sprintf("unknown vendor %q", v)}
	}
}

// MinPages is the hard floor below which the vendor will not bind a book.
func (p Profile) MinPages() int { return p.minPages }

// TrimSizes returns a copy of the supported trim sizes.
func (p Profile) TrimSizes() []TrimSize {
	out := make([]TrimSize, len(p.trimSizes))
	copy(out, p.trimSizes)
	return out
}

// ValidateTrimSize reports whether trim is in the vendor's enumerated list.
func (p Profile) ValidateTrimSize(trim TrimSize) bool {
	for _, t := range p.trimSizes {
		if t.Equal(trim) {
			return true
		}
	}
	return false
}

// RequireTrimSize parses and validates a trim size string.
func (p Profile) RequireTrimSize(s string) (TrimSize, error) {
	trim, err := ParseTrimSize(s)
	if err != nil {
		return TrimSize{}, err
	}
	if !p.ValidateTrimSize(trim) {
		return TrimSize{}, &entity.UnsupportedTrimSizeError{Vendor: string(p.Vendor), TrimSize: s}
	}
	return trim, nil
}

func (p Profile) paperSpec(paper PaperType) (paperSpec, error) {
	if paper == "" {
		paper = PaperWhite
	}
	spec, ok := p.paper[paper]
	if !ok {
		return paperSpec{}, &entity.InvalidInputError{Field: "paper_type", Reason: fmt.Sprintf("%s has no paper %q", p.Vendor, paper)}
	}
	return spec, nil
}

// SpineWidth returns the spine thickness in inches for pageCount pages.
func (p Profile) SpineWidth(pageCount int, paper PaperType) (float64, error) {
	spec, err := p.paperSpec(paper)
	if err != nil {
		return 0, err
	}
	if pageCount < p.minPages {
		return 0, &entity.InvalidInputError{
			Field:  "page_count",
			Reason: fmt.Sprintf("%d pages is below the %s minimum of %d", pageCount, p.Vendor, p.minPages),
		}
	}
	return float64(pageCount)*spec.perPageInches + p.coverAllowance, nil
}

// Validation is the outcome of a page count check.
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func isLargeTrim(t TrimSize) bool {
	return t.Width > 6.12 || t.Height > 9
}

// ValidatePageCount enforces the vendor's minimum and the maximum for the
// trim size category. It does not know the paper, so regular trims are
// checked against the most generous paper; use ValidatePaperPageCount once
// the paper is known.
func (p Profile) ValidatePageCount(pageCount int, trim TrimSize) Validation {
	if pageCount < p.minPages {
		return Validation{Reason: fmt.Sprintf("%s requires at least %d pages, got %d", p.Vendor, p.minPages, pageCount)}
	}
	limit := 0
	for _, spec := range p.paper {
		if spec.maxPages > limit {
			limit = spec.maxPages
		}
	}
	category := "regular"
	if isLargeTrim(trim) {
		limit = p.maxLargeTrimPages
		category = "large"
	}
	if pageCount > limit {
		return Validation{Reason: fmt.Sprintf("%s allows at most %d pages for %s trim %s, got %d", p.Vendor, limit, category, trim, pageCount)}
	}
	return Validation{Valid: true}
}

// ValidatePaperPageCount is ValidatePageCount narrowed to one paper's
// maximum. An empty paper means white.
func (p Profile) ValidatePaperPageCount(pageCount int, trim TrimSize, paper PaperType) Validation {
	if v := p.ValidatePageCount(pageCount, trim); !v.Valid {
		return v
	}
	spec, err := p.paperSpec(paper)
	if err != nil {
		return Validation{Reason: err.Error()}
	}
	if paper == "" {
		paper = PaperWhite
	}
	if pageCount > spec.maxPages {
		return Validation{Reason: fmt.Sprintf("%s allows at most %d pages on %s paper, got %d", p.Vendor, spec.maxPages, paper, pageCount)}
	}
	return Validation{Valid: true}
}

// InteriorPageSize is the interior page size including bleed.
func (p Profile) InteriorPageSize(trim TrimSize) Size {
	if p.interiorBleedAllEdges {
		return Size{Width: trim.Width + 2*Bleed, Height: trim.Height + 2*Bleed}
	}
	return Size{Width: trim.Width + Bleed, Height: trim.Height + 2*Bleed}
}

// InsideMargin is the minimum gutter margin for pageCount pages.
func (p Profile) InsideMargin(pageCount int) float64 {
	if p.Vendor == VendorLulu {
		if pageCount > 400 {
			return 0.875
		}
		return 0.75
	}
	switch {
	case pageCount <= 150:
		return 0.375
	case pageCount <= 300:
		return 0.5
	case pageCount <= 500:
		return 0.625
	case pageCount <= 700:
		return 0.75
	default:
		return 0.875
	}
}

// CalculateSpineWidth returns the KDP spine width for pageCount pages.
func CalculateSpineWidth(pageCount int, paper PaperType) (float64, error) {
	return kdpProfile.SpineWidth(pageCount, paper)
}

// ValidatePageCount checks pageCount against KDP's limits for trim.
func ValidatePageCount(pageCount int, trim TrimSize) Validation {
	return kdpProfile.ValidatePageCount(pageCount, trim)
}

// ValidateTrimSize reports whether KDP prints trim.
func ValidateTrimSize(trim TrimSize) bool {
	return kdpProfile.ValidateTrimSize(trim)
}

func unsupported(p Profile, trim TrimSize) error {
	return &entity.UnsupportedTrimSizeError{Vendor: string(p.Vendor), TrimSize: trim.String()}
}
