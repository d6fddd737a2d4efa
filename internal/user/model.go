package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/membership"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrInactiveUser = errors.New("user is inactive")
	ErrInvalidTier  = fmt.Errorf("user has an %w", membership.ErrInvalidTier)
)

// User is a volunteer who may book activities.
// Profiles are managed elsewhere; this service only reads them.
type User struct {
	ID          string // UUID
	DisplayName *string
	Tier        membership.Tier
	IsActive    bool
	CreatedAt   time.Time
}
