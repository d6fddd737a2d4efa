package booking

import (
	"context"
	"time"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/timerange"
)

// ScheduleSource lists a user's confirmed bookings with their time windows.
type ScheduleSource interface {
	FindConfirmedBookingsForUser(ctx context.Context, userID string) ([]ScheduledBooking, error)
}

// ConflictDetector finds confirmed bookings that overlap a proposed window.
type ConflictDetector struct {
	source ScheduleSource
}

func NewConflictDetector(source ScheduleSource) *ConflictDetector {
	return &ConflictDetector{source: source}
}

// FindConflict returns the first of the user's confirmed bookings whose
// activity overlaps [start, end), or nil if there is none. Back-to-back
// windows do not overlap.
func (d *ConflictDetector) FindConflict(ctx context.Context, userID string, start, end time.Time) (*ScheduledBooking, error) {
	bookings, err := d.source.FindConfirmedBookingsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if timerange.Overlaps(start, end, bookings[i].StartTime, bookings[i].EndTime) {
			return &bookings[i], nil
		}
	}
	return nil, nil
}

// HasConflict reports whether any confirmed booking of the user overlaps [start, end).
func (d *ConflictDetector) HasConflict(ctx context.Context, userID string, start, end time.Time) (bool, error) {
	b, err := d.FindConflict(ctx, userID, start, end)
	return b != nil, err
}
