package http

import (
	"time"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/activity"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/booking"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/request"
)

// ListActivitiesRequest defines query parameters for listing activities.
type ListActivitiesRequest struct {
	request.ListParams
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Tier   string     `form:"tier" binding:"omitempty,oneof=ad-hoc once-a-week twice-a-week three-plus-a-week"`
	SortBy string     `form:"sort_by" binding:"omitempty,oneof=start_time created_at title"`
}

type ActivityResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Location       string    `json:"location"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Capacity       int       `json:"capacity"`
	ConfirmedCount int       `json:"confirmed_count"`
	Remaining      int       `json:"remaining"`
	AllowedTiers   []string  `json:"allowed_tiers"`
}

func NewActivityResponse(a *activity.Activity) ActivityResponse {
	tiers := make([]string, len(a.AllowedTiers))
	for i, t := range a.AllowedTiers {
		tiers[i] = string(t)
	}
	return ActivityResponse{
		ID:             a.ID,
		Title:          a.Title,
		Location:       a.Location,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		Capacity:       a.Capacity,
		ConfirmedCount: a.ConfirmedCount,
		Remaining:      a.Remaining(),
		AllowedTiers:   tiers,
	}
}

// EligibilityResponse is the outcome of a dry-run booking check.
// Rejections carry the same code and details a real booking attempt would.
type EligibilityResponse struct {
	Eligible       bool   `json:"eligible"`
	Code           string `json:"code,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Details        any    `json:"details,omitempty"`
	Capacity       int    `json:"capacity,omitempty"`
	ConfirmedCount int    `json:"confirmed_count"`
	Tier           string `json:"tier,omitempty"`
	WeeklyCount    int    `json:"weekly_count"`
	// WeeklyLimit is null for unlimited tiers.
	WeeklyLimit *int `json:"weekly_limit"`
}

func NewEligibleResponse(e *booking.Eligibility) EligibilityResponse {
	resp := EligibilityResponse{
		Eligible:       true,
		Capacity:       e.Capacity,
		ConfirmedCount: e.ConfirmedCount,
		Tier:           string(e.Tier),
		WeeklyCount:    e.WeeklyCount,
	}
	if !e.WeeklyLimit.IsUnlimited() {
		limit := int(e.WeeklyLimit)
		resp.WeeklyLimit = &limit
	}
	return resp
}
