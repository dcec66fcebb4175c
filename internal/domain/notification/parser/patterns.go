package parser

import "regexp"

const (
	// Currency is the only currency code ever attached to a record.
	Currency = "KRW"

	TypeApproval     = "승인"
	TypeCancellation = "취소"

	MethodSinglePayment = "일시불"
	MethodOverseas      = "해외승인"
	overseasPrefix      = "해외"

	datetimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
)

// cancellationKeywords mark a notification as a reversal.
var cancellationKeywords = []string{"취소", "승인취소", "환불"}

var (
	// Number with optional thousands separators, bound to a currency marker on either side.
	amountPattern = regexp.MustCompile(`(?:[₩￦]|KRW)\s*(\d+(?:,\d+)*)|(\d+(?:,\d+)*)\s*(?:원|KRW)`)

	// MM/DD or MM-DD, whitespace, HH:MM with optional :SS.
	timestampPattern = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})\s+(\d{1,2}):(\d{2})(?::(\d{2}))?`)

	brandPattern = regexp.MustCompile(`\[([^\]]*)\]`)

	methodPattern        = regexp.MustCompile(`일시불|할부\s*\d+(?:개월)?|해외승인`)
	leadingMethodPattern = regexp.MustCompile(`^(?:일시불|할부\s*\d+(?:개월)?|해외승인)\s*`)

	// Longer alternatives first so 승인취소 is consumed whole.
	terminalPattern = regexp.MustCompile(`승인취소|승인|취소|환불`)

	// Ends a merchant that trails its terminal keyword.
	trailingStopPattern = regexp.MustCompile(`승인취소|승인|취소|환불|잔액|누적`)

	parenPattern = regexp.MustCompile(`[(（][^)）]*[)）]`)
)
