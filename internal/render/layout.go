package render

import "strings"

// WrapText breaks text into lines no wider than width using greedy word
// filling. Words wider than a line are split between runes.
func WrapText(m Measurer, text string, width float64) []string {
	var lines []string
	var line string
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if m.MeasureText(candidate) <= width {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
		for m.MeasureText(word) > width {
			head, tail := splitToWidth(m, word, width)
			lines = append(lines, head)
			word = tail
		}
		line = word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

func splitToWidth(m Measurer, word string, width float64) (string, string) {
	r := []rune(word)
	n := 1
	for n < len(r) && m.MeasureText(string(r[:n+1])) <= width {
		n++
	}
	return string(r[:n]), string(r[n:])
}

// FitRect returns the placement of an image with the given aspect (width over
// height) inside box, centred.
func FitRect(aspect float64, box Rect, fit Fit) Rect {
	if aspect <= 0 {
		aspect = 1
	}
	boxAspect := box.W / box.H
	w, h := box.W, box.H
	if (aspect > boxAspect) == (fit == FitContain) {
		h = w / aspect
	} else {
		w = h * aspect
	}
	return Rect{X: box.X + (box.W-w)/2, Y: box.Y + (box.H-h)/2, W: w, H: h}
}

// TextBlock draws wrapped paragraphs top-down from box.Y and returns the y
// of the next free line. Lines that would overflow box are dropped and
// reported through the returned count.
func TextBlock(c Canvas, f Font, box Rect, paragraphs []string) (next float64, dropped int) {
	c.SetFont(f)
	lh := f.LineHeight()
	y := box.Y
	for pi, p := range paragraphs {
		if pi > 0 {
			y += lh / 2
		}
		for _, line := range WrapText(c, p, box.W) {
			if y+lh > box.Y+box.H+1e-9 {
				dropped++
				continue
			}
			c.DrawText(box.X, y+f.Size/72, line)
			y += lh
		}
	}
	return y, dropped
}

// DrawCentered draws s horizontally centred in [x, x+w] with its baseline
// at y.
func DrawCentered(c Canvas, x, w, y float64, s string) {
	c.DrawText(x+(w-c.MeasureText(s))/2, y, s)
}
