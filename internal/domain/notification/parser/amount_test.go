package parser

import "testing"

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		found    bool
	}{
		{"12,300원", 12300, true},
		{"12300 원", 12300, true},
		{"1,200,000원", 1200000, true},
		{"₩4,800", 4800, true},
		{"￦ 1,000 승인", 1000, true},
		{"KRW 5,000", 5000, true},
		{"5,000KRW", 5000, true},
		{"-18,000원", 18000, true},
		{"[현대카드] 10/07 13:45 12,300원 일시불 CU당산점 승인", 12300, true},
		{"12,300원 승인 잔액 1,000,000원", 12300, true},
		{"09:10 4,800원", 4800, true},
		{"12,300", 0, false},
		{"10/07 13:45", 0, false},
		{"hello world", 0, false},
		{"", 0, false},
		{"99999999999999999999원", 0, false},
	}

	for _, tc := range tests {
		got, ok := ExtractAmount(tc.input)
		if ok != tc.found || got != tc.expected {
			t.Errorf("ExtractAmount(%q) = (%d, %v), want (%d, %v)", tc.input, got, ok, tc.expected, tc.found)
		}
	}
}
