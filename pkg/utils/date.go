package utils

import (
	"fmt"
	"time"
)

// CompactDateLayout is the provider-facing date format (YYYYMMDD).
const CompactDateLayout = "20060102"

var cstLocation *time.Location

func init() {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// Fixed offset fallback for environments without tzdata.
		loc = time.FixedZone("CST", 8*60*60)
	}
	cstLocation = loc
}

// GetCSTLocation returns the China Standard Time location.
func GetCSTLocation() *time.Location {
	return cstLocation
}

// TimeNowCST returns the current time in China Standard Time.
func TimeNowCST() time.Time {
	return time.Now().In(cstLocation)
}

// ParseCompactDate parses a YYYYMMDD date string in CST.
func ParseCompactDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(CompactDateLayout, s, cstLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatCompactDate formats a time as YYYYMMDD.
func FormatCompactDate(t time.Time) string {
	return t.Format(CompactDateLayout)
}

// TruncateToDay drops the time-of-day component, keeping the CST date.
func TruncateToDay(t time.Time) time.Time {
	t = t.In(cstLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, cstLocation)
}

// IsWeekday reports whether t falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.In(cstLocation).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
