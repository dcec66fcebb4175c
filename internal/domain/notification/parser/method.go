package parser

// ClassifyMethod returns the leftmost payment-method token in text. Notifications
// without one are single payments.
func ClassifyMethod(text string) string {
	if m := methodPattern.FindString(text); m != "" {
		return m
	}
	return MethodSinglePayment
}
