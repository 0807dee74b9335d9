// Package dateutil handles the calendar-date arithmetic shared by
// every analytics tool: range resolution with trailing-window
// defaults, and day/week/month bucketing for trend series.
package dateutil

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// DefaultWindowDays is the trailing window applied when a tool is
// called without an explicit date range.
const DefaultWindowDays = 30

// Range is an inclusive calendar-date range.
type Range struct {
	From string // YYYY-MM-DD
	To   string // YYYY-MM-DD
}

// Valid checks that s is a well-formed YYYY-MM-DD string.
func Valid(s string) bool {
	_, err := time.Parse(layout, s)
	return err == nil
}

// ResolveRange resolves optional start/end strings into a concrete
// range. Both omitted: trailing DefaultWindowDays window ending at
// now. Only end omitted: now. Only start omitted: DefaultWindowDays
// before the end. Errors if either bound fails to parse or start is
// after end.
func ResolveRange(start, end string, now time.Time) (Range, error) {
	if end == "" {
		end = now.UTC().Format(layout)
	}
	tEnd, err := time.Parse(layout, end)
	if err != nil {
		return Range{}, fmt.Errorf(
			"invalid end date %q: expected YYYY-MM-DD", end,
		)
	}
	if start == "" {
		start = tEnd.AddDate(0, 0, -DefaultWindowDays).Format(layout)
	}
	tStart, err := time.Parse(layout, start)
	if err != nil {
		return Range{}, fmt.Errorf(
			"invalid start date %q: expected YYYY-MM-DD", start,
		)
	}
	if tStart.After(tEnd) {
		return Range{}, fmt.Errorf(
			"start date %s is after end date %s", start, end,
		)
	}
	return Range{From: start, To: end}, nil
}

// Contains reports whether date falls within the range, inclusive
// on both ends. Dates compare lexicographically in YYYY-MM-DD form.
func (r Range) Contains(date string) bool {
	return date >= r.From && date <= r.To
}

// DaysBetween returns the inclusive day count between two dates,
// or 0 if either fails to parse.
func DaysBetween(a, b string) int {
	ta, err := time.Parse(layout, a)
	if err != nil {
		return 0
	}
	tb, err := time.Parse(layout, b)
	if err != nil {
		return 0
	}
	if ta.After(tb) {
		ta, tb = tb, ta
	}
	return int(tb.Sub(ta).Hours()/24) + 1
}

// AddDays shifts a date by n days (n may be negative). Unparseable
// dates are returned unchanged.
func AddDays(date string, n int) string {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(layout)
}

// Bucket truncates a date to the start of its period bucket.
// Week buckets start Monday; month buckets are the first of the
// calendar month. Unknown periods (and unparseable dates) return
// the date unchanged, matching day granularity.
func Bucket(date, period string) string {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date
	}
	switch period {
	case "week":
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		t = t.AddDate(0, 0, -(weekday - 1))
		return t.Format(layout)
	case "month":
		return t.Format("2006-01") + "-01"
	default:
		return date
	}
}

// ValidPeriod reports whether period is a supported bucket size.
func ValidPeriod(period string) bool {
	switch period {
	case "day", "week", "month":
		return true
	}
	return false
}
