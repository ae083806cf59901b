package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize drops control characters and collapses every whitespace
// run to a single space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(stripControl(s)), " ")
}

// NormalizeName cleans a customer name as typed by an operator. Casing is
// left alone since Vietnamese names are entered as the customer spells them.
func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.Join(strings.Fields(email), ""))
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) || r == '\u200b' || r == '\ufeff' {
			return -1
		}
		return r
	}, s)
}
