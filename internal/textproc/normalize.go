package textproc

import "strings"

// Normalize collapses every run of Unicode whitespace, line breaks
// included, to a single space and trims the result.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
