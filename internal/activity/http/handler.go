package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/activity"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/auth"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/booking"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/membership"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/response"
)

// EligibilityChecker runs booking admission checks without booking.
type EligibilityChecker interface {
	CheckEligibility(ctx context.Context, userID, activityID string) (*booking.Eligibility, error)
}

type Handler struct {
	service     activity.Service
	eligibility EligibilityChecker
}

func NewHandler(service activity.Service, eligibility EligibilityChecker) *Handler {
	return &Handler{service: service, eligibility: eligibility}
}

func (h *Handler) List(c *gin.Context) {
	var req ListActivitiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	filter := activity.Filter{
		From:      req.From,
		To:        req.To,
		Tier:      membership.Tier(req.Tier),
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, activity.ErrInvalidTimeRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		response.Error(c, err)
		return
	}

	resp := make([]ActivityResponse, len(items))
	for i, a := range items {
		resp[i] = NewActivityResponse(a)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(resp, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity id"})
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		if errors.Is(err, activity.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewActivityResponse(a))
}

// rejections are the outcomes reported as "not eligible" rather than as errors.
var rejections = []error{
	booking.ErrActivityFull,
	booking.ErrTierNotAllowed,
	booking.ErrWeeklyLimitExceeded,
	booking.ErrSchedulingConflict,
}

// Eligibility tells the caller whether booking the activity would succeed right now.
func (h *Handler) Eligibility(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity id"})
		return
	}

	e, err := h.eligibility.CheckEligibility(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err == nil {
		c.JSON(http.StatusOK, NewEligibleResponse(e))
		return
	}

	var appErr *apperror.AppError
	for _, target := range rejections {
		if errors.Is(err, target) && errors.As(err, &appErr) {
			c.JSON(http.StatusOK, EligibilityResponse{
				Eligible: false,
				Code:     appErr.Reason,
				Reason:   appErr.Message,
				Details:  appErr.Details,
			})
			return
		}
	}
	response.Error(c, err)
}
