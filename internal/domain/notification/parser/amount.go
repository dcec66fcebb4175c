package parser

import (
	"strconv"
	"strings"
)

// ExtractAmount returns the magnitude of the first currency-marked number in text.
// Later numbers (a running balance, for instance) are ignored.
func ExtractAmount(text string) (int64, bool) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	digits := m[1]
	if digits == "" {
		digits = m[2]
	}

	v, err := strconv.ParseInt(strings.ReplaceAll(digits, ",", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
