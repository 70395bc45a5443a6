package render

import (
	"fmt"
	"strings"
	"unicode"
)

// GlyphChecker is implemented by canvases whose fonts cannot draw every rune.
type GlyphChecker interface {
	CanRender(r rune) bool
}

// cp1252High maps the 0x80-0x9F block of Windows-1252 back to Unicode.
var cp1252High = map[rune]bool{
	'€': true, '‚': true, 'ƒ': true, '„': true, '…': true, '†': true, '‡': true,
	'ˆ': true, '‰': true, 'Š': true, '‹': true, 'Œ': true, 'Ž': true,
	'‘': true, '’': true, '“': true, '”': true, '•': true,
	'–': true, '—': true, '˜': true, '™': true, 'š': true, '›': true, 'œ': true,
	'ž': true, 'Ÿ': true,
}

// InCP1252 reports whether the core PDF fonts can draw r.
func InCP1252(r rune) bool {
	switch {
	case r < 0x80:
		return true
	case r >= 0xA0 && r <= 0xFF:
		return true
	}
	return cp1252High[r]
}

// Unrenderable returns the distinct runes of s that c cannot draw, in order
// of first appearance. Whitespace is ignored.
func Unrenderable(c Canvas, s string) []rune {
	gc, ok := c.(GlyphChecker)
	if !ok {
		return nil
	}
	var out []rune
	seen := map[rune]bool{}
	for _, r := range s {
		if unicode.IsSpace(r) || seen[r] || gc.CanRender(r) {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

const maxReportedRunes = 6

// glyphWarning names where text is lost, or returns "" when every rune of
// texts can be drawn.
func glyphWarning(c Canvas, where string, texts ...string) string {
	missing := Unrenderable(c, strings.Join(texts, "\n"))
	if len(missing) == 0 {
		return ""
	}
	more := ""
	if len(missing) > maxReportedRunes {
		more = fmt.Sprintf(" and %d more", len(missing)-maxReportedRunes)
		missing = missing[:maxReportedRunes]
	}
	codes := make([]string, len(missing))
	for i, r := range missing {
		codes[i] = fmt.Sprintf("%U", r)
	}
	return fmt.Sprintf("%s: font cannot draw %q (%s)%s; configure a UTF-8 font",
		where, string(missing), strings.Join(codes, " "), more)
}
