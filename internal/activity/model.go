package activity

import (
	"errors"
	"time"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/membership"
)

var (
	ErrNotFound         = errors.New("activity not found")
	ErrInvalidTimeRange = errors.New("from must be before to")
)

// Activity is a schedulable volunteering event. Activities are maintained by
// administrators elsewhere; this service only reads them.
type Activity struct {
	ID        string
	Title     string
	Location  string
	StartTime time.Time
	EndTime   time.Time
	Capacity  int
	// AllowedTiers restricts who may book. Empty means open to every tier.
	AllowedTiers []membership.Tier
	CreatedAt    time.Time

	// ConfirmedCount is filled by List/GetByID for display only;
	// admission decisions always re-count under lock.
	ConfirmedCount int
}

// Remaining returns the number of free places, never below zero.
func (a *Activity) Remaining() int {
	if r := a.Capacity - a.ConfirmedCount; r > 0 {
		return r
	}
	return 0
}

// IsOpenTo reports whether a member on tier t may book this activity.
func (a *Activity) IsOpenTo(t membership.Tier) bool {
	return len(a.AllowedTiers) == 0 || membership.ContainsTier(a.AllowedTiers, t)
}

// Filter defines parameters for listing activities.
type Filter struct {
	From      *time.Time // activities ending after this instant
	To        *time.Time // activities starting before this instant
	Tier      membership.Tier
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
