package document

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// pdfText converts UTF-8 text into the Windows-1252 bytes the core PDF
// fonts expect. Accented letters outside that code page fall back to
// their base letter; anything else without a mapping (emoji, symbols,
// joiners) is dropped.
func pdfText(s string) string {
	enc := charmap.Windows1252
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if c, ok := enc.EncodeRune(r); ok {
			b.WriteByte(c)
			continue
		}
		for _, d := range norm.NFD.String(string(r)) {
			if unicode.Is(unicode.Mn, d) {
				continue
			}
			if c, ok := enc.EncodeRune(d); ok {
				b.WriteByte(c)
			}
		}
	}
	return strings.TrimSpace(collapseSpaces(b.String()))
}

func collapseSpaces(s string) string {
	if !strings.Contains(s, "  ") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}
