package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/auth"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/membership"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/user"
)

// UsageReporter reports a member's weekly booking usage.
type UsageReporter interface {
	Usage(ctx context.Context, tier membership.Tier, userID string) (membership.Usage, error)
}

type UserHandler struct {
	userService user.Service
	usage       UsageReporter
}

func NewHandler(userService user.Service, usage UsageReporter) *UserHandler {
	return &UserHandler{
		userService: userService,
		usage:       usage,
	}
}

// Me returns the authenticated user's profile with this week's quota usage.
func (h *UserHandler) Me(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()

	u, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if errors.Is(err, user.ErrInvalidTier) {
			slog.ErrorContext(ctx, "user has invalid tier", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "user tier is not recognised", "code": "invalid_user_tier"})
			return
		}
		slog.ErrorContext(ctx, "get user failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}

	usage, err := h.usage.Usage(ctx, u.Tier, u.ID)
	if err != nil {
		slog.ErrorContext(ctx, "get weekly usage failed", "user_id", userID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to get weekly usage"})
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		User:        NewUserResponse(u),
		WeeklyQuota: NewQuotaResponse(usage),
	})
}
