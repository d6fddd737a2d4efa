package http

import (
	"time"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/membership"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/user"
)

// UserResponse is the shape of user data returned in API responses.
type UserResponse struct {
	ID          string    `json:"id"`
	DisplayName *string   `json:"display_name"`
	Tier        string    `json:"tier"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUserResponse converts domain user.User to UserResponse used by the API.
func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Tier:        string(u.Tier),
		CreatedAt:   u.CreatedAt,
	}
}

// QuotaResponse reports weekly booking usage. Limit and Remaining are null for unlimited tiers.
type QuotaResponse struct {
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`
	Used      int       `json:"used"`
	Limit     *int      `json:"limit"`
	Remaining *int      `json:"remaining"`
}

func NewQuotaResponse(u membership.Usage) QuotaResponse {
	resp := QuotaResponse{
		WeekStart: u.WeekStart,
		WeekEnd:   u.WeekEnd,
		Used:      u.Count,
	}
	if !u.Limit.IsUnlimited() {
		limit, remaining := int(u.Limit), u.Remaining()
		resp.Limit = &limit
		resp.Remaining = &remaining
	}
	return resp
}

// MeResponse returns the current user info.
type MeResponse struct {
	User        UserResponse  `json:"user"`
	WeeklyQuota QuotaResponse `json:"weekly_quota"`
}
