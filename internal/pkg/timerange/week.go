package timerange

import "time"

// WeekBoundaries returns the Monday 00:00:00.000 and Sunday 23:59:59.999 that
// bound the week containing ref, evaluated in ref's location.
// Sunday is the last day of the week, not the first.
func WeekBoundaries(ref time.Time) (weekStart, weekEnd time.Time) {
	loc := ref.Location()
	y, m, d := ref.Date()

	// Weekday() counts from Sunday=0; shift so Monday=0 ... Sunday=6.
	sinceMonday := (int(ref.Weekday()) + 6) % 7

	weekStart = time.Date(y, m, d-sinceMonday, 0, 0, 0, 0, loc)
	// Build the next Monday from calendar fields so DST transitions don't skew it.
	nextMonday := time.Date(y, m, d-sinceMonday+7, 0, 0, 0, 0, loc)
	weekEnd = nextMonday.Add(-time.Millisecond)
	return weekStart, weekEnd
}

// Contains reports whether t lies within [start, end], both ends inclusive.
func Contains(start, end, t time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
