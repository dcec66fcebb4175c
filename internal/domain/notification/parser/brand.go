package parser

import "strings"

// ExtractBrand returns the trimmed interior of the first [...] segment, or "".
func ExtractBrand(text string) string {
	m := brandPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
