package timerange

import "time"

// Overlaps reports whether the half-open ranges [startA, endA) and [startB, endB)
// share any instant. Ranges that only touch at an endpoint do not overlap.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && endA.After(startB)
}
