package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reNonDigits = regexp.MustCompile(`[^0-9]+`)
)

func DigitsOnly(s string) string {
	return reNonDigits.ReplaceAllString(s, "")
}

func CountDigits(s string) int {
	return len(DigitsOnly(s))
}

// SanitizeLocation normalizes a free-text pickup or dropoff address.
func SanitizeLocation(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		TrimAndNormalize,
	}
	return p.Apply(input)
}

// SanitizeNote keeps line breaks but trims surrounding whitespace.
func SanitizeNote(input string) string {
	return strings.TrimSpace(input)
}

// Optional returns nil for blank input so the field serializes as null.
func Optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
