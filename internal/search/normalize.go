package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims q and converts it to Unicode NFC, so composed and
// decomposed spellings of the same name are the same query.
func Normalize(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}
