// Package streak holds the calendar-day arithmetic behind the study-streak
// counter. Everything here is pure so the transition rules can be tested
// without a database or a real clock.
package streak

import "time"

// DayOf truncates t to midnight of its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns the whole calendar days from one day-truncated time to
// another. The delta comes from the date components, not wall-clock hours:
// a DST transition makes a local day 23 or 25 hours long, which would
// otherwise truncate consecutive days to 0 or collapse a two-day gap to 1.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// Advance computes the streak state after a qualifying session on today.
// lastDay is the day-truncated date of the previous qualifying session, or
// nil if the user has never studied. A negative day delta (stored date ahead
// of today, e.g. clock skew between devices) is treated as a same-day repeat
// and never increments.
func Advance(current int, startDate *time.Time, lastDay *time.Time, today time.Time) (int, *time.Time) {
	if lastDay == nil {
		// First-ever session
		return 1, &today
	}

	switch delta := DaysBetween(*lastDay, today); {
	case delta == 1:
		// Consecutive day
		return current + 1, startDate
	case delta > 1:
		// Streak broken, restart
		return 1, &today
	default:
		// Same day (or clock skew): already credited
		return current, startDate
	}
}

// Stale reports whether a streak whose last qualifying session fell on
// lastDay should be reset by the maintenance sweep: the gap to today is more
// than one calendar day, so the streak can no longer be continued.
func Stale(lastDay, today time.Time) bool {
	return DaysBetween(lastDay, today) > 1
}
