package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/activity"
)

type fakeCounter struct {
	count int
	err   error
}

func (f fakeCounter) CountConfirmedBookings(context.Context, string) (int, error) {
	return f.count, f.err
}

func TestCapacityChecker(t *testing.T) {
	act := &activity.Activity{ID: "a1", Capacity: 3}

	tests := []struct {
		name  string
		count int
		want  bool
	}{
		{"empty", 0, true},
		{"one left", 2, true},
		{"full", 3, false},
		{"overbooked", 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, current, err := NewCapacityChecker(fakeCounter{count: tt.count}).HasCapacity(context.Background(), act)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.count, current)
		})
	}
}

func TestCapacityChecker_ZeroCapacity(t *testing.T) {
	ok, _, err := NewCapacityChecker(fakeCounter{}).HasCapacity(context.Background(), &activity.Activity{Capacity: 0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCapacityChecker_Error(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := NewCapacityChecker(fakeCounter{err: boom}).HasCapacity(context.Background(), &activity.Activity{Capacity: 1})
	assert.ErrorIs(t, err, boom)
}

type fakeSchedule struct {
	bookings []ScheduledBooking
	err      error
}

func (f fakeSchedule) FindConfirmedBookingsForUser(context.Context, string) ([]ScheduledBooking, error) {
	return f.bookings, f.err
}

func TestConflictDetector(t *testing.T) {
	day := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

	existing := []ScheduledBooking{
		{BookingID: "b1", ActivityID: "a1", StartTime: at(9), EndTime: at(12)},
		{BookingID: "b2", ActivityID: "a2", StartTime: at(14), EndTime: at(16)},
	}
	d := NewConflictDetector(fakeSchedule{bookings: existing})

	tests := []struct {
		name       string
		start, end time.Time
		wantID     string
	}{
		{"overlaps first", at(11), at(13), "b1"},
		{"inside second", at(14), at(15), "b2"},
		{"contains first", at(8), at(13), "b1"},
		{"ends at start", at(8), at(9), ""},
		{"starts at end", at(12), at(14), ""},
		{"gap", at(17), at(18), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.FindConflict(context.Background(), "u1", tt.start, tt.end)
			require.NoError(t, err)

			has, err := d.HasConflict(context.Background(), "u1", tt.start, tt.end)
			require.NoError(t, err)

			if tt.wantID == "" {
				assert.Nil(t, got)
				assert.False(t, has)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.BookingID)
			assert.True(t, has)
		})
	}
}

func TestConflictDetector_NoBookings(t *testing.T) {
	got, err := NewConflictDetector(fakeSchedule{}).FindConflict(context.Background(), "u1", time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConflictDetector_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewConflictDetector(fakeSchedule{err: boom}).HasConflict(context.Background(), "u1", time.Now(), time.Now())
	assert.ErrorIs(t, err, boom)
}
