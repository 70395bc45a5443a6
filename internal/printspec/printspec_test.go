package printspec

import (
	"errors"
	"testing"

	"bookpublish/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrimSize(t *testing.T) {
	tests := []struct {
		in      string
		want    TrimSize
		wantErr bool
	}{
		{in: "6x9", want: TrimSize{6, 9}},
		{in: "8.5 x 8.5", want: TrimSize{8.5, 8.5}},
		{in: "6inx9in", want: TrimSize{6, 9}},
		{in: "6X9", want: TrimSize{6, 9}},
		{in: "6", wantErr: true},
		{in: "axb", wantErr: true},
		{in: "0x9", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTrimSize(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v", got)
		})
	}
}

func TestCalculateSpineWidth(t *testing.T) {
	t.Run("below minimum", func(t *testing.T) {
		_, err := CalculateSpineWidth(23, PaperWhite)
		var invalid *entity.InvalidInputError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "page_count", invalid.Field)
	})

	t.Run("unknown paper", func(t *testing.T) {
		_, err := CalculateSpineWidth(100, PaperType("vellum"))
		assert.ErrorIs(t, err, entity.ErrInvalidInput)
	})

	t.Run("linear in page count", func(t *testing.T) {
		w, err := CalculateSpineWidth(100, PaperWhite)
		require.NoError(t, err)
		assert.InDelta(t, 0.2252, w, 1e-9)

		cream, err := CalculateSpineWidth(100, PaperCream)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, cream, 1e-9)
	})

	t.Run("empty paper defaults to white", func(t *testing.T) {
		a, err := CalculateSpineWidth(200, "")
		require.NoError(t, err)
		b, err := CalculateSpineWidth(200, PaperWhite)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestSpineWidth_MonotonicInPageCount(t *testing.T) {
	for _, profile := range []Profile{KDP(), Lulu()} {
		for paper := range profile.paper {
			prev := 0.0
			for pages := profile.MinPages(); pages <= 900; pages++ {
				w, err := profile.SpineWidth(pages, paper)
				require.NoError(t, err)
				require.GreaterOrEqual(t, w, prev, "%s/%s at %d pages", profile.Vendor, paper, pages)
				prev = w
			}
		}
	}
}

func TestValidateTrimSize(t *testing.T) {
	assert.True(t, ValidateTrimSize(TrimSize{6, 9}))
	assert.True(t, ValidateTrimSize(TrimSize{8.5, 8.5}))
	assert.False(t, ValidateTrimSize(TrimSize{6, 6}))
	assert.True(t, Lulu().ValidateTrimSize(TrimSize{7.5, 7.5}))
	assert.False(t, KDP().ValidateTrimSize(TrimSize{7.5, 7.5}))

	_, err := KDP().RequireTrimSize("7.5x7.5")
	assert.ErrorIs(t, err, entity.ErrUnsupportedTrimSize)
}

func TestValidatePageCount(t *testing.T) {
	assert.True(t, ValidatePageCount(32, TrimSize{6, 9}).Valid)

	v := ValidatePageCount(20, TrimSize{6, 9})
	assert.False(t, v.Valid)
	assert.Contains(t, v.Reason, "at least 24")

	assert.True(t, ValidatePageCount(800, TrimSize{6, 9}).Valid)
	v = ValidatePageCount(800, TrimSize{8.5, 11})
	assert.False(t, v.Valid)
	assert.Contains(t, v.Reason, "large")

	assert.False(t, Lulu().ValidatePageCount(24, TrimSize{6, 9}).Valid)
}

func TestValidatePaperPageCount(t *testing.T) {
	regular := TrimSize{6, 9}
	tests := []struct {
		name    string
		profile Profile
		pages   int
		trim    TrimSize
		paper   PaperType
		valid   bool
		reason  string
	}{
		{name: "kdp white 800", profile: KDP(), pages: 800, trim: regular, paper: PaperWhite, valid: true},
		{name: "kdp default paper is white", profile: KDP(), pages: 828, trim: regular, valid: true},
		{name: "kdp cream at cap", profile: KDP(), pages: 776, trim: regular, paper: PaperCream, valid: true},
		{name: "kdp cream 800", profile: KDP(), pages: 800, trim: regular, paper: PaperCream, reason: "at most 776 pages on cream"},
		{name: "kdp standard color at cap", profile: KDP(), pages: 600, trim: regular, paper: PaperStandardColor, valid: true},
		{name: "kdp standard color 601", profile: KDP(), pages: 601, trim: regular, paper: PaperStandardColor, reason: "at most 600 pages on standard-color"},
		{name: "kdp large trim wins over paper", profile: KDP(), pages: 700, trim: TrimSize{8.5, 11}, paper: PaperWhite, reason: "large"},
		{name: "kdp below minimum", profile: KDP(), pages: 20, trim: regular, paper: PaperCream, reason: "at least 24"},
		{name: "unknown paper", profile: KDP(), pages: 100, trim: regular, paper: "vellum", reason: "vellum"},
		{name: "lulu cream 800", profile: Lulu(), pages: 800, trim: regular, paper: PaperCream, valid: true},
		{name: "lulu 801", profile: Lulu(), pages: 801, trim: regular, paper: PaperWhite, reason: "at most 800"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := tc.profile.ValidatePaperPageCount(tc.pages, tc.trim, tc.paper)
			assert.Equal(t, tc.valid, v.Valid, v.Reason)
			if tc.reason != "" {
				assert.Contains(t, v.Reason, tc.reason)
			}
		})
	}
}

func TestCoverSpecs_RejectsPagesOverPaperLimit(t *testing.T) {
	_, err := KDP().CoverSpecs(800, TrimSize{6, 9}, PaperCream, 0)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	assert.ErrorContains(t, err, "cream")

	_, err = GenerateKDPCoverSpecs(601, TrimSize{6, 9}, PaperStandardColor)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)

	_, err = GenerateKDPCoverSpecs(800, TrimSize{6, 9}, PaperWhite)
	assert.NoError(t, err)
}

func TestGenerateKDPCoverSpecs(t *testing.T) {
	specs, err := GenerateKDPCoverSpecs(32, TrimSize{6, 9}, PaperWhite)
	require.NoError(t, err)

	assert.Greater(t, specs.SpineWidthInches, 0.0)
	assert.Equal(t, specs.BackWidth+specs.SpineWidthInches, specs.FrontX)
	assert.Equal(t, 0.125, specs.BleedInches)
	assert.InDelta(t, 0.125+6+specs.SpineWidthInches+6+0.125, specs.TotalWidthInches, 1e-9)
	assert.InDelta(t, 9.25, specs.TotalHeightInches, 1e-9)
	assert.InDelta(t, specs.SpineX+specs.SpineWidthInches/2, specs.SpineCenterX, 1e-9)
	assert.Equal(t, 300, specs.DPI)
	assert.Equal(t, InchesToPixels(specs.TotalWidthInches, 300), specs.WidthPixels)
	assert.Equal(t, 2775, specs.HeightPixels)
	assert.False(t, specs.SpineTextAllowed, "a 32 page spine is too thin for text")

	calc := specs.Calculation()
	assert.Equal(t, specs.SpineWidthInches, calc.SpineWidthInches)
	assert.Equal(t, specs.TotalWidthInches, calc.TotalTrimWidthInches)
}

func TestCoverSpecs_SpineTextThreshold(t *testing.T) {
	specs, err := KDP().CoverSpecs(200, TrimSize{6, 9}, PaperWhite, 0)
	require.NoError(t, err)
	assert.True(t, specs.SpineTextAllowed)
	assert.Equal(t, DefaultDPI, specs.DPI)
}

func TestCoverSpecs_UnsupportedTrim(t *testing.T) {
	_, err := GenerateKDPCoverSpecs(100, TrimSize{3, 3}, PaperWhite)
	assert.ErrorIs(t, err, entity.ErrUnsupportedTrimSize)
}

func TestInteriorPageSize(t *testing.T) {
	assert.Equal(t, Size{6.125, 9.25}, KDP().InteriorPageSize(TrimSize{6, 9}))
	assert.Equal(t, Size{6.25, 9.25}, Lulu().InteriorPageSize(TrimSize{6, 9}))
}

func TestInsideMargin(t *testing.T) {
	kdp := KDP()
	assert.Equal(t, 0.375, kdp.InsideMargin(24))
	assert.Equal(t, 0.5, kdp.InsideMargin(151))
	assert.Equal(t, 0.625, kdp.InsideMargin(400))
	assert.Equal(t, 0.875, kdp.InsideMargin(800))
	assert.Equal(t, 0.75, Lulu().InsideMargin(100))
}

func TestInchesToPixels(t *testing.T) {
	assert.Equal(t, 300, InchesToPixels(1, 300))
	assert.Equal(t, 38, InchesToPixels(0.125, 300))
	assert.Equal(t, 0, InchesToPixels(0, 300))
}
