package parser

import "strings"

// Normalize collapses every run of whitespace (newlines and NBSP included) into a
// single space and trims both ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
