package utils

import (
	"strings"
	"unicode/utf8"
)

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// NormalizeWhitespace replaces runs of whitespace with a single space and trims the ends.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateString shortens str to at most maxRunes runes, appending "..." when cut.
func (s *StringHelper) TruncateString(str string, maxRunes int) string {
	if utf8.RuneCountInString(str) <= maxRunes {
		return str
	}

	runes := []rune(str)

	return string(runes[:max(maxRunes, 0)]) + "..."
}

// StripNonASCII removes every rune outside the ASCII range.
func (s *StringHelper) StripNonASCII(str string) string {
	return strings.Map(func(r rune) rune {
		if r > 127 {
			return -1
		}

		return r
	}, str)
}
