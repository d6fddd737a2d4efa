package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts /bookings. rateLimit guards booking creation only.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, rateLimit gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", rateLimit, h.Create)
	}
}
