package internal

import (
	"strings"
	"unicode"
)

// RemovePunctuation strips punctuation from a clicked subtitle word so the
// translator sees the bare word. Apostrophes and hyphens between two
// letters are kept ("aujourd'hui", "peut-être").
func RemovePunctuation(word string) string {
	runes := []rune(strings.TrimSpace(word))
	var b strings.Builder
	for i, r := range runes {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			b.WriteRune(r)
			continue
		}
		if (r == '\'' || r == '’' || r == '-') && i > 0 && i < len(runes)-1 &&
			unicode.IsLetter(runes[i-1]) && unicode.IsLetter(runes[i+1]) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
