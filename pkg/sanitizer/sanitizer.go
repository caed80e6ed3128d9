package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func lower(s string) string {
	return strings.ToLower(s)
}

func dropSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func SanitizeOfficeName(input string) string {
	return TrimAndNormalize(input)
}

func SanitizeUsername(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		dropSpaces,
		lower,
	}
	return p.Apply(input)
}

func SanitizeEmail(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		lower,
	}
	return p.Apply(input)
}

// SanitizeToken trims identifiers, dates and filter values taken from the wire.
func SanitizeToken(input string) string {
	return strings.TrimSpace(input)
}

// SanitizeOptional returns a copy of *s with strategy applied. Nil stays nil.
func SanitizeOptional(s *string, strategy Strategy) *string {
	if s == nil {
		return nil
	}
	v := strategy(*s)
	return &v
}
