package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/membership"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.NewWithReason(http.StatusNotFound, "booking_not_found", "booking not found")
	ErrUserNotFound        = apperror.NewWithReason(http.StatusNotFound, "user_not_found", "user not found")
	ErrActivityNotFound    = apperror.NewWithReason(http.StatusNotFound, "activity_not_found", "activity not found")
	ErrActivityFull        = apperror.NewWithReason(http.StatusConflict, "activity_full", "activity is fully booked")
	ErrTierNotAllowed      = apperror.NewWithReason(http.StatusForbidden, "tier_not_allowed", "your membership tier cannot book this activity")
	ErrWeeklyLimitExceeded = apperror.NewWithReason(http.StatusForbidden, "weekly_limit_exceeded", "weekly booking limit reached for your membership tier")
	ErrSchedulingConflict  = apperror.NewWithReason(http.StatusConflict, "scheduling_conflict", "you already have a booking that overlaps this activity")
	ErrIdempotencyConflict = apperror.NewWithReason(http.StatusUnprocessableEntity, "idempotency_conflict", "idempotency key was already used for a different activity")
	ErrInvalidIdempotency  = apperror.NewWithReason(http.StatusBadRequest, "invalid_idempotency_key", "idempotency key must be at most 256 characters")
	ErrInvalidStatus       = apperror.NewWithReason(http.StatusBadRequest, "invalid_status", "invalid booking status")
	ErrStoreUnavailable    = apperror.NewWithReason(http.StatusServiceUnavailable, "store_unavailable", "booking store unavailable, please retry")
	ErrQuotaMisconfigured  = apperror.NewWithReason(http.StatusInternalServerError, "quota_misconfigured", "membership quota is not configured for this tier")
	ErrInvalidUserTier     = apperror.NewWithReason(http.StatusInternalServerError, "invalid_user_tier", "your account has an unrecognised membership tier")
	ErrRequestCanceled     = apperror.NewWithReason(apperror.StatusClientClosedRequest, "request_canceled", "request canceled")
)

// ErrDuplicateID is returned by Repository.Insert when the booking ID already exists.
var ErrDuplicateID = apperror.NewWithReason(http.StatusConflict, "duplicate_booking_id", "booking id already exists")

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusAttended  Status = "attended"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusAttended, StatusCancelled:
		return true
	}
	return false
}

// Booking records a user's commitment to an activity.
type Booking struct {
	ID         string
	UserID     string
	ActivityID string
	Status     Status
	// Timestamp is when the booking was made. Weekly quotas count by it.
	Timestamp time.Time

	// Activity display fields, filled on reads.
	ActivityTitle string
	StartTime     time.Time
	EndTime       time.Time
}

// ScheduledBooking is a confirmed booking joined to its activity's time window.
type ScheduledBooking struct {
	BookingID  string
	ActivityID string
	StartTime  time.Time
	EndTime    time.Time
	Timestamp  time.Time
}

// BookRequest asks to book ActivityID for UserID.
type BookRequest struct {
	UserID     string
	ActivityID string
	// IdempotencyKey, when set, makes retries of the same request return the original booking.
	IdempotencyKey string
}

// Eligibility is the outcome of a dry-run admission check that passed.
type Eligibility struct {
	ActivityID     string
	Capacity       int
	ConfirmedCount int
	Tier           membership.Tier
	WeeklyCount    int
	WeeklyLimit    membership.Limit
}

type Filter struct {
	UserID     string
	ActivityID string
	Status     Status
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// ActivityFullDetails accompanies ErrActivityFull.
type ActivityFullDetails struct {
	Capacity     int `json:"capacity"`
	CurrentCount int `json:"current_count"`
}

// TierNotAllowedDetails accompanies ErrTierNotAllowed.
type TierNotAllowedDetails struct {
	AllowedTiers []membership.Tier `json:"allowed_tiers"`
}

// WeeklyLimitDetails accompanies ErrWeeklyLimitExceeded.
type WeeklyLimitDetails struct {
	CurrentCount int `json:"current_count"`
	Limit        int `json:"limit"`
}

// ConflictDetails accompanies ErrSchedulingConflict.
type ConflictDetails struct {
	ConflictingBookingID  string `json:"conflicting_booking_id"`
	ConflictingActivityID string `json:"conflicting_activity_id"`
}
