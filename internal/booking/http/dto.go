package http

import (
	"time"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/booking"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/request"
)

// IdempotencyHeader carries a client-chosen key that makes booking retries safe.
const IdempotencyHeader = "Idempotency-Key"

// ListBookingsRequest defines query parameters for listing the caller's bookings.
type ListBookingsRequest struct {
	request.ListParams
	ActivityID string `form:"activity_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=confirmed attended cancelled"`
	SortBy     string `form:"sort_by" binding:"omitempty,oneof=start_time created_at"`
}

type CreateBookingRequest struct {
	ActivityID string `json:"activity_id" binding:"required,uuid"`
}

// ActivityTag is a brief representation of the booked activity.
type ActivityTag struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type BookingResponse struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	ActivityID string      `json:"activity_id"`
	Status     string      `json:"status"`
	Timestamp  time.Time   `json:"timestamp"`
	Activity   ActivityTag `json:"activity"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:         b.ID,
		UserID:     b.UserID,
		ActivityID: b.ActivityID,
		Status:     string(b.Status),
		Timestamp:  b.Timestamp,
		Activity: ActivityTag{
			ID:        b.ActivityID,
			Title:     b.ActivityTitle,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
		},
	}
}

// CreateBookingResponse wraps the confirmed booking.
type CreateBookingResponse struct {
	Booking BookingResponse `json:"booking"`
}
