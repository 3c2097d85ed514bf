package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies Unicode NFC and collapses runs of whitespace to a single space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// SameText reports whether two texts are equal after normalization, ignoring case.
func SameText(a, b string) bool {
	return strings.EqualFold(Normalize(a), Normalize(b))
}

// IsBlank reports whether text holds nothing but whitespace.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
