package parser

import (
	"strconv"
	"time"
)

// ExtractTimestamp finds a "MM/DD HH:MM[:SS]" token and combines it with year.
// A year <= 0 means the current year. Calendar-invalid combinations such as 02/30 or
// 25:00 are reported as absent.
func ExtractTimestamp(text string, year int) (time.Time, bool) {
	m := timestampPattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	if year <= 0 {
		year = time.Now().Year()
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	hour, _ := strconv.Atoi(m[3])
	minute, _ := strconv.Atoi(m[4])
	second := 0
	if m[5] != "" {
		second, _ = strconv.Atoi(m[5])
	}

	if !validDateTime(year, month, day, hour, minute, second) {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), true
}

func validDateTime(year, month, day, hour, minute, second int) bool {
	if year < 1 || year > 9999 {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	if day < 1 || day > daysIn(year, time.Month(month)) {
		return false
	}
	return hour >= 0 && hour <= 23 &&
		minute >= 0 && minute <= 59 &&
		second >= 0 && second <= 59
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
