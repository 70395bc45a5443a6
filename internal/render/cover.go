package render

import (
	"fmt"
	"math"

	"bookpublish/internal/printspec"
	"bookpublish/internal/textutil"
)

// CoverContent is what goes on a wrap cover.
type CoverContent struct {
	Title     string
	Author    string
	SpineText string
	Blurb     string
	FrontRef  string
	BackRef   string
}

// Barcode zone on the back panel, measured from the trim corner.
const (
	barcodeWidth  = 2.0
	barcodeHeight = 1.2
	barcodeInset  = 0.25
	// coverSafety is the distance from trim that live text keeps.
	coverSafety = 0.375
)

var (
	coverTitleFont = Font{Family: "Helvetica", Style: "B", Size: 28}
	coverBodyFont  = Font{Family: "Helvetica", Size: 11}
)

// BarcodeZone returns the area on the back panel that stays blank for the
// vendor's ISBN barcode.
func BarcodeZone(specs printspec.CoverSpecs) Rect {
	trimRight := specs.BackWidth
	trimBottom := specs.TotalHeightInches - specs.BleedInches
	return Rect{
		X: trimRight - barcodeInset - barcodeWidth,
		Y: trimBottom - barcodeInset - barcodeHeight,
		W: barcodeWidth,
		H: barcodeHeight,
	}
}

// FrontPanel, BackPanel and SpinePanel span the full canvas height,
// bleed included.
func FrontPanel(specs printspec.CoverSpecs) Rect {
	return Rect{X: specs.FrontX, Y: 0, W: specs.FrontWidth, H: specs.TotalHeightInches}
}

func BackPanel(specs printspec.CoverSpecs) Rect {
	return Rect{X: 0, Y: 0, W: specs.BackWidth, H: specs.TotalHeightInches}
}

func SpinePanel(specs printspec.CoverSpecs) Rect {
	return Rect{X: specs.SpineX, Y: 0, W: specs.SpineWidthInches, H: specs.TotalHeightInches}
}

// DrawWrapCover lays a single-canvas wrap cover out from specs: back panel
// on the left, spine in the middle and front panel on the right. Missing
// optional content and text the font cannot draw are reported as warnings.
func DrawWrapCover(c Canvas, specs printspec.CoverSpecs, cc CoverContent, imgs Images) ([]string, error) {
	var warnings []string
	if w := glyphWarning(c, "cover", cc.Title, cc.Author, cc.SpineText, cc.Blurb); w != "" {
		warnings = append(warnings, w)
	}
	c.NewPage(printspec.Size{Width: specs.TotalWidthInches, Height: specs.TotalHeightInches})
	b := specs.BleedInches
	c.SetTrimBox(Rect{X: b, Y: b, W: specs.TotalWidthInches - 2*b, H: specs.TotalHeightInches - 2*b})
	c.SetTextColor(Black)

	front := FrontPanel(specs)
	drawn, warning, err := drawPanelArt(c, cc.FrontRef, front, "front cover", imgs)
	if err != nil {
		return warnings, err
	}
	if warning != "" {
		warnings = append(warnings, warning)
	}
	if !drawn {
		DrawPlaceholder(c, front, "")
		safe := Rect{X: specs.FrontX + coverSafety, Y: b + coverSafety, W: specs.TrimSize.Width - 2*coverSafety, H: specs.TrimSize.Height - 2*coverSafety}
		c.SetFont(coverTitleFont)
		y := safe.Y + safe.H/3
		for _, line := range WrapText(c, cc.Title, safe.W) {
			DrawCentered(c, safe.X, safe.W, y, line)
			y += coverTitleFont.LineHeight()
		}
		if cc.Author != "" {
			c.SetFont(coverBodyFont)
			DrawCentered(c, safe.X, safe.W, y+coverBodyFont.LineHeight(), cc.Author)
		}
	}

	back := BackPanel(specs)
	if cc.BackRef == "" {
		warnings = append(warnings, "no back cover art; back panel left plain")
	} else {
		drawn, warning, err := drawPanelArt(c, cc.BackRef, back, "back cover", imgs)
		if err != nil {
			return warnings, err
		}
		if !drawn {
			DrawPlaceholder(c, back, "")
			warnings = append(warnings, warning)
		}
	}

	zone := BarcodeZone(specs)
	if cc.Blurb == "" {
		warnings = append(warnings, "no back cover blurb")
	} else {
		box := Rect{X: b + coverSafety, Y: b + coverSafety, W: specs.TrimSize.Width - 2*coverSafety}
		box.H = zone.Y - 0.25 - box.Y
		c.FillRect(box.Inset(-0.1), White)
		if _, dropped := TextBlock(c, coverBodyFont, box, textutil.Paragraphs(cc.Blurb)); dropped > 0 {
			warnings = append(warnings, fmt.Sprintf("back cover blurb: %d lines did not fit", dropped))
		}
	}
	c.FillRect(zone, White)

	text := cc.SpineText
	if text == "" {
		text = cc.Title
	}
	if !specs.SpineTextAllowed {
		warnings = append(warnings, fmt.Sprintf("spine is %.3fin wide, too narrow for %s spine text; spine left blank", specs.SpineWidthInches, specs.Vendor))
	} else if text != "" {
		drawSpineText(c, specs, text)
	}
	return warnings, nil
}

// drawPanelArt fills panel with the referenced art. It returns false when
// no art was drawn.
func drawPanelArt(c Canvas, ref string, panel Rect, what string, imgs Images) (bool, string, error) {
	if ref == "" {
		return false, fmt.Sprintf("no %s art; placeholder used", what), nil
	}
	img, ok, warning, err := imgs.resolve(ref, what+" art")
	if err != nil || !ok {
		return false, warning, err
	}
	if err := c.DrawImage(img, panel, FitCover); err != nil {
		return false, "", fmt.Errorf("%s: %w", what, err)
	}
	return true, "", nil
}

func drawSpineText(c Canvas, specs printspec.CoverSpecs, text string) {
	f := Font{Family: "Helvetica", Style: "B", Size: math.Min(14, specs.SpineWidthInches*72*0.55)}
	c.SetFont(f)
	avail := specs.TrimSize.Height - 2*coverSafety
	limit := len([]rune(text))
	for limit > 1 && c.MeasureText(text) > avail {
		limit--
		text = textutil.Truncate(text, limit)
	}
	// Spine text reads top to bottom.
	c.DrawTextRotated(specs.SpineCenterX, specs.CenterY, -90, text)
}
