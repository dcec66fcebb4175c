package parser

import "strings"

// IsCancellation reports whether text carries a cancellation or refund keyword.
func IsCancellation(text string) bool {
	for _, kw := range cancellationKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
