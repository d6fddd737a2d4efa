package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code.
// If it's not an AppError, it defaults to 500 Internal Server Error.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Code >= http.StatusInternalServerError {
			slog.ErrorContext(c.Request.Context(), "request failed",
				slog.String("path", c.FullPath()),
				slog.Any("err", err),
			)
		}
		c.JSON(appErr.Code, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Reason,
			Details: appErr.Details,
		})
		return
	}

	if errors.Is(err, context.Canceled) {
		c.JSON(apperror.StatusClientClosedRequest, ErrorResponse{Error: "request canceled", Code: "request_canceled"})
		return
	}

	slog.ErrorContext(c.Request.Context(), "unhandled error",
		slog.String("path", c.FullPath()),
		slog.Any("err", err),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
