// Package timeutil centralizes calendar-date handling. Game dates are keyed
// to the US Eastern calendar day regardless of the venue or server timezone,
// matching how the upstream scoreboards bucket their schedules.
package timeutil

import (
	"sync"
	"time"
)

// DateLayout is the canonical wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	easternOnce sync.Once
	eastern     *time.Location
)

// Eastern returns the America/New_York location, falling back to a fixed
// UTC-5 zone when tzdata is unavailable.
func Eastern() *time.Location {
	easternOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.FixedZone("EST", -5*60*60)
		}
		eastern = loc
	})
	return eastern
}

// GameDate formats t as an eastern calendar date.
func GameDate(t time.Time) string {
	return t.In(Eastern()).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, Eastern())
}

// Window returns the eastern calendar dates from daysBack before now through
// daysAhead after now, inclusive and in chronological order.
func Window(now time.Time, daysBack, daysAhead int) []string {
	base := now.In(Eastern())
	dates := make([]string, 0, daysBack+daysAhead+1)
	for offset := -daysBack; offset <= daysAhead; offset++ {
		dates = append(dates, base.AddDate(0, 0, offset).Format(DateLayout))
	}
	return dates
}
