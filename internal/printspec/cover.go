package printspec

import "bookpublish/internal/entity"

// CoverSpecs describes a wrap cover canvas (back + spine + front) and where
// each panel sits on it. All lengths are inches measured from the top-left
// corner of the canvas, bleed included.
type CoverSpecs struct {
	Vendor           Vendor    `json:"vendor"`
	TrimSize         TrimSize  `json:"trim_size"`
	PageCount        int       `json:"page_count"`
	Paper            PaperType `json:"paper_type"`
	BleedInches      float64   `json:"bleed_inches"`
	SpineWidthInches float64   `json:"spine_width_inches"`

	TotalWidthInches  float64 `json:"total_width_inches"`
	TotalHeightInches float64 `json:"total_height_inches"`

	// BackWidth spans the left bleed and the back trim width.
	BackWidth float64 `json:"back_width"`
	// SpineX is the left edge of the spine strip.
	SpineX float64 `json:"spine_x"`
	// FrontX is the left edge of the front panel, BackWidth + SpineWidthInches.
	FrontX float64 `json:"front_x"`
	// FrontWidth spans the front trim width and the right bleed.
	FrontWidth float64 `json:"front_width"`

	SpineCenterX float64 `json:"spine_center_x"`
	CenterY      float64 `json:"center_y"`

	SpineTextAllowed bool `json:"spine_text_allowed"`

	DPI          int `json:"dpi"`
	WidthPixels  int `json:"width_pixels"`
	HeightPixels int `json:"height_pixels"`
}

// SpineCalculation is the stateless dimension summary for one print run.
type SpineCalculation struct {
	SpineWidthInches      float64 `json:"spine_width_inches"`
	TotalTrimWidthInches  float64 `json:"total_trim_width_inches"`
	TotalTrimHeightInches float64 `json:"total_trim_height_inches"`
	BleedInches           float64 `json:"bleed_inches"`
}

// Calculation reduces the cover specs to the dimension summary.
func (c CoverSpecs) Calculation() SpineCalculation {
	return SpineCalculation{
		SpineWidthInches:      c.SpineWidthInches,
		TotalTrimWidthInches:  c.TotalWidthInches,
		TotalTrimHeightInches: c.TotalHeightInches,
		BleedInches:           c.BleedInches,
	}
}

// CoverSpecs computes the wrap cover canvas for the vendor. dpi <= 0 means
// DefaultDPI.
func (p Profile) CoverSpecs(pageCount int, trim TrimSize, paper PaperType, dpi int) (CoverSpecs, error) {
	if !p.ValidateTrimSize(trim) {
		return CoverSpecs{}, unsupported(p, trim)
	}
	spine, err := p.SpineWidth(pageCount, paper)
	if err != nil {
		return CoverSpecs{}, err
	}
	if v := p.ValidatePaperPageCount(pageCount, trim, paper); !v.Valid {
		return CoverSpecs{}, &entity.InvalidInputError{Field: "page_count", Reason: v.Reason}
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if paper == "" {
		paper = PaperWhite
	}

	backWidth := Bleed + trim.Width
	frontWidth := trim.Width + Bleed
	totalW := backWidth + spine + frontWidth
	totalH := trim.Height + 2*Bleed

	return CoverSpecs{
		Vendor:            p.Vendor,
		TrimSize:          trim,
		PageCount:         pageCount,
		Paper:             paper,
		BleedInches:       Bleed,
		SpineWidthInches:  spine,
		TotalWidthInches:  totalW,
		TotalHeightInches: totalH,
		BackWidth:         backWidth,
		SpineX:            backWidth,
		FrontX:            backWidth + spine,
		FrontWidth:        frontWidth,
		SpineCenterX:      backWidth + spine/2,
		CenterY:           totalH / 2,
		SpineTextAllowed:  spine >= p.spineTextMinWidth,
		DPI:               dpi,
		WidthPixels:       InchesToPixels(totalW, dpi),
		HeightPixels:      InchesToPixels(totalH, dpi),
	}, nil
}

// GenerateKDPCoverSpecs computes the KDP wrap cover at DefaultDPI.
func GenerateKDPCoverSpecs(pageCount int, trim TrimSize, paper PaperType) (CoverSpecs, error) {
	return kdpProfile.CoverSpecs(pageCount, trim, paper, DefaultDPI)
}
