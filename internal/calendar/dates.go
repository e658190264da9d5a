package calendar

import (
	"errors"
	"regexp"
	"time"
)

// DateLayout is the YYYY-MM-DD layout used by every date query parameter.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned for strings that are not a real YYYY-MM-DD date.
var ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD")

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses s as local midnight. Dates that do not exist, such as
// 2025-02-30, are rejected instead of being rolled over.
func ParseDate(s string) (time.Time, error) {
	if !dateRe.MatchString(s) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	if t.Format(DateLayout) != s {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// StartOfDay returns 00:00:00.000 of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// FormatDate renders t as YYYY-MM-DD in local time.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(DateLayout)
}
