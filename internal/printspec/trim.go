package printspec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"bookpublish/internal/entity"
)

// TrimSize is a finished page size in inches.
type TrimSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ParseTrimSize reads sizes written as "6x9" or "8.5 x 8.5".
func ParseTrimSize(s string) (TrimSize, error) {
	parts := strings.Split(strings.ToLower(strings.ReplaceAll(s, " ", "")), "x")
	if len(parts) != 2 {
		return TrimSize{}, &entity.InvalidInputError{Field: "trim_size", Reason: fmt.Sprintf("%q is not WIDTHxHEIGHT", s)}
	}
	w, err := strconv.ParseFloat(strings.TrimSuffix(parts[0], "in"), 64)
	if err != nil {
		return TrimSize{}, &entity.InvalidInputError{Field: "trim_size", Reason: fmt.Sprintf("bad width in %q", s)}
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(parts[1], "in"), 64)
	if err != nil {
		return TrimSize{}, &entity.InvalidInputError{Field: "trim_size", Reason: fmt.Sprintf("bad height in %q", s)}
	}
	if w <= 0 || h <= 0 {
		return TrimSize{}, &entity.InvalidInputError{Field: "trim_size", Reason: fmt.Sprintf("%q must be positive", s)}
	}
	return TrimSize{Width: w, Height: h}, nil
}

func (t TrimSize) String() string {
	return strconv.FormatFloat(t.Width, 'f', -1, 64) + "x" + strconv.FormatFloat(t.Height, 'f', -1, 64)
}

// Equal compares to a hundredth of an inch, the precision vendors publish.
func (t TrimSize) Equal(o TrimSize) bool {
	return math.Abs(t.Width-o.Width) < 0.005 && math.Abs(t.Height-o.Height) < 0.005
}

// Size is a page or canvas size in inches.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// InchesToPixels converts a physical length to raster pixels at dpi.
func InchesToPixels(inches float64, dpi int) int {
	return int(math.Round(inches * float64(dpi)))
}
