package parser

import "strings"

// ExtractMerchant isolates the payee name from normalized notification text.
//
// When an amount is followed by a terminal keyword, the merchant is the span between
// them, or the span after the keyword when the keyword sits right after the amount.
// The timestamp is used as the left anchor only when no amount is followed by a
// keyword.
func ExtractMerchant(text string) string {
	if tail, ok := amountToKeyword(text); ok {
		if merchant := cleanMerchant(tail); merchant != "" {
			return merchant
		}
		if tail, ok := keywordAfterAmount(text); ok {
			return cleanMerchant(tail)
		}
		return ""
	}
	if tail, ok := timestampToKeyword(text); ok {
		return cleanMerchant(tail)
	}
	return ""
}

// amountToKeyword: "12,300원 일시불 CU당산점 승인" -> "CU당산점".
func amountToKeyword(text string) (string, bool) {
	loc := amountPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	raw := text[loc[1]:]
	if span, ok := untilKeyword(stripMethod(raw)); ok {
		return span, true
	}
	// A bare "해외승인" after the amount is both method and keyword.
	return "", terminalPattern.MatchString(raw)
}

// keywordAfterAmount: "18,000원 취소 배달의민족" -> "배달의민족".
func keywordAfterAmount(text string) (string, bool) {
	rest, ok := afterAmount(text)
	if !ok {
		return "", false
	}
	loc := terminalPattern.FindStringIndex(rest)
	if loc == nil || loc[0] != 0 {
		return "", false
	}
	rest = rest[loc[1]:]
	if stop := trailingStopPattern.FindStringIndex(rest); stop != nil {
		rest = rest[:stop[0]]
	}
	return rest, true
}

// timestampToKeyword: "10/07 13:45 카카오T 승인" -> "카카오T".
func timestampToKeyword(text string) (string, bool) {
	loc := timestampPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return untilKeyword(text[loc[1]:])
}

// afterAmount returns the text following the first amount token with any leading
// method token removed.
func afterAmount(text string) (string, bool) {
	loc := amountPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return stripMethod(text[loc[1]:]), true
}

func untilKeyword(rest string) (string, bool) {
	loc := terminalPattern.FindStringIndex(rest)
	if loc == nil {
		return "", false
	}
	span := rest[:loc[0]]
	// "해외승인" is matched on its 승인 suffix; drop the leftover marker.
	if rest[loc[0]:loc[1]] == TypeApproval {
		span = strings.TrimSuffix(span, overseasPrefix)
	}
	return span, true
}

func stripMethod(s string) string {
	return leadingMethodPattern.ReplaceAllString(strings.TrimSpace(s), "")
}

func cleanMerchant(tail string) string {
	tail = stripMethod(tail)
	tail = parenPattern.ReplaceAllString(tail, " ")
	return Normalize(tail)
}
