package booking

import (
	"context"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/activity"
)

// ConfirmedCounter counts confirmed bookings for an activity.
type ConfirmedCounter interface {
	CountConfirmedBookings(ctx context.Context, activityID string) (int, error)
}

// CapacityChecker decides whether an activity still has a free place.
type CapacityChecker struct {
	counter ConfirmedCounter
}

func NewCapacityChecker(counter ConfirmedCounter) *CapacityChecker {
	return &CapacityChecker{counter: counter}
}

// HasCapacity reports whether one more confirmed booking fits in act, along
// with the current confirmed count. Only confirmed bookings take a place.
func (c *CapacityChecker) HasCapacity(ctx context.Context, act *activity.Activity) (bool, int, error) {
	count, err := c.counter.CountConfirmedBookings(ctx, act.ID)
	if err != nil {
		return false, 0, err
	}
	return count < act.Capacity, count, nil
}
