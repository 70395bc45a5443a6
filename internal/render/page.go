package render

import (
	"fmt"

	"bookpublish/internal/entity"
	"bookpublish/internal/imageload"
	"bookpublish/internal/printspec"
	"bookpublish/internal/textutil"
)

// Type styles of the interior.
var (
	BodyFont    = Font{Family: "Times", Size: 12}
	HeadingFont = Font{Family: "Times", Style: "B", Size: 18}
	TitleFont   = Font{Family: "Times", Style: "B", Size: 26}
	CaptionFont = Font{Family: "Times", Style: "I", Size: 10}
	SmallFont   = Font{Family: "Times", Size: 8}
	FolioFont   = Font{Family: "Times", Size: 9}
)

// PageFrame is one interior page as a vendor lays it out: the page size
// with bleed, the trim box on it and the safe area for content.
type PageFrame struct {
	Size    printspec.Size
	Trim    Rect
	Content Rect
}

// Images pairs loaded images with the policy for the missing ones.
type Images struct {
	Set    *imageload.Set
	Policy imageload.Policy
}

func (im Images) resolve(ref, what string) (imageload.Image, bool, string, error) {
	return im.Policy.Resolve(im.Set, ref, what)
}

// ImageRefs lists every image referenced by the layout, in page order.
func ImageRefs(pages []entity.Page) []string {
	var refs []string
	for _, p := range pages {
		for _, b := range p.Blocks {
			if b.Kind == entity.BlockImage && b.ImageRef != "" {
				refs = append(refs, b.ImageRef)
			}
		}
	}
	return refs
}

// FirstBodyPage returns the number of the first chapter page, or 0.
func FirstBodyPage(pages []entity.Page) int {
	for _, p := range pages {
		if !p.IsFrontMatter() {
			return p.Number
		}
	}
	return 0
}

// ChapterStarts returns the numbers of the pages that open a chapter.
func ChapterStarts(pages []entity.Page) map[int]bool {
	starts := map[int]bool{}
	last := 0
	for _, p := range pages {
		if p.ChapterNumber > 0 && p.ChapterNumber != last {
			starts[p.Number] = true
		}
		if p.ChapterNumber > 0 {
			last = p.ChapterNumber
		}
	}
	return starts
}

// Folio returns the printed page number. Title and blank pages carry none,
// the rest of the front matter is numbered in lower-case roman and arabic
// numbering starts at 1 on firstBody.
func Folio(p entity.Page, firstBody int) string {
	if p.Type == entity.PageTitle || p.Type == entity.PageBlank {
		return ""
	}
	if firstBody > 0 && p.Number >= firstBody {
		return fmt.Sprint(p.Number - firstBody + 1)
	}
	return textutil.Roman(p.Number)
}

// DrawPageBody draws the blocks of page inside box. Chapter opening pages
// get a heading unless they hold only artwork. Text the current font cannot
// draw is reported once per page.
func DrawPageBody(c Canvas, page entity.Page, box Rect, chapterStart bool, imgs Images) ([]string, error) {
	c.SetTextColor(Black)
	if page.Type == entity.PageBlank {
		return nil, nil
	}
	heading := chapterStart && page.Type != entity.PageImage && page.ChapterTitle != ""

	var warnings []string
	if w := glyphWarning(c, fmt.Sprintf("page %d", page.Number), pageText(page, heading)...); w != "" {
		warnings = append(warnings, w)
	}
	switch page.Type {
	case entity.PageTitle:
		drawTitlePage(c, page, box)
		return warnings, nil
	case entity.PageCopyright:
		drawCopyrightPage(c, page, box)
		return warnings, nil
	}

	y := box.Y
	if heading {
		c.SetFont(HeadingFont)
		lh := HeadingFont.LineHeight()
		y += box.H * 0.1
		for _, line := range WrapText(c, page.ChapterTitle, box.W) {
			DrawCentered(c, box.X, box.W, y+HeadingFont.Size/72, line)
			y += lh
		}
		y += lh
	}

	remaining := 0
	for _, b := range page.Blocks {
		if b.Kind == entity.BlockImage {
			remaining++
		}
	}
	bottom := box.Y + box.H
	for _, b := range page.Blocks {
		switch b.Kind {
		case entity.BlockText:
			next, dropped := TextBlock(c, BodyFont, Rect{X: box.X, Y: y, W: box.W, H: bottom - y}, textutil.Paragraphs(b.Text))
			if dropped > 0 {
				warnings = append(warnings, fmt.Sprintf("page %d: %d lines of text did not fit", page.Number, dropped))
			}
			y = next + BodyFont.LineHeight()/2
		case entity.BlockImage:
			h := (bottom - y) / float64(remaining)
			remaining--
			if h < 0.5 {
				warnings = append(warnings, fmt.Sprintf("page %d: no room left for image %s", page.Number, textutil.Truncate(b.ImageRef, 60)))
				continue
			}
			warning, err := drawFigure(c, b, Rect{X: box.X, Y: y, W: box.W, H: h}, page.Number, imgs)
			if err != nil {
				return warnings, err
			}
			if warning != "" {
				warnings = append(warnings, warning)
			}
			y += h
		}
	}
	return warnings, nil
}

// pageText lists every string DrawPageBody prints for page.
func pageText(page entity.Page, heading bool) []string {
	var out []string
	if heading {
		out = append(out, page.ChapterTitle)
	}
	for _, b := range page.Blocks {
		switch b.Kind {
		case entity.BlockText:
			out = append(out, b.Text)
		case entity.BlockImage:
			out = append(out, b.Caption)
		}
	}
	return out
}

func drawFigure(c Canvas, b entity.Block, box Rect, pageNumber int, imgs Images) (string, error) {
	imgBox := box
	if b.Caption != "" {
		imgBox.H -= CaptionFont.LineHeight() * 1.5
	}
	img, ok, warning, err := imgs.resolve(b.ImageRef, fmt.Sprintf("page %d image", pageNumber))
	if err != nil {
		return "", err
	}
	if ok {
		if err := c.DrawImage(img, imgBox, FitContain); err != nil {
			return "", fmt.Errorf("page %d: %w", pageNumber, err)
		}
	} else {
		DrawPlaceholder(c, imgBox, "Illustration unavailable")
	}
	if b.Caption != "" {
		c.SetFont(CaptionFont)
		DrawCentered(c, box.X, box.W, imgBox.Y+imgBox.H+CaptionFont.LineHeight(), b.Caption)
	}
	return warning, nil
}

// DrawPlaceholder fills box with a neutral panel and a centred label.
func DrawPlaceholder(c Canvas, box Rect, label string) {
	c.FillRect(box, Placeholder)
	if label == "" {
		return
	}
	c.SetFont(CaptionFont)
	c.SetTextColor(Gray)
	DrawCentered(c, box.X, box.W, box.Y+box.H/2, label)
	c.SetTextColor(Black)
}

func drawTitlePage(c Canvas, page entity.Page, box Rect) {
	y := box.Y + box.H/3
	for i, b := range page.Blocks {
		if b.Kind != entity.BlockText {
			continue
		}
		f := BodyFont
		if i == 0 {
			f = TitleFont
		}
		c.SetFont(f)
		for _, line := range WrapText(c, b.Text, box.W) {
			DrawCentered(c, box.X, box.W, y+f.Size/72, line)
			y += f.LineHeight()
		}
		y += f.LineHeight()
	}
}

// drawCopyrightPage sets the notice small and flush with the bottom of box.
func drawCopyrightPage(c Canvas, page entity.Page, box Rect) {
	c.SetFont(SmallFont)
	var lines []string
	for _, b := range page.Blocks {
		if b.Kind != entity.BlockText {
			continue
		}
		for _, p := range textutil.Paragraphs(b.Text) {
			lines = append(lines, WrapText(c, p, box.W)...)
		}
	}
	lh := SmallFont.LineHeight()
	y := box.Y + box.H - float64(len(lines))*lh
	if y < box.Y {
		y = box.Y
	}
	for _, line := range lines {
		if y+lh > box.Y+box.H+1e-9 {
			break
		}
		c.DrawText(box.X, y+SmallFont.Size/72, line)
		y += lh
	}
}
