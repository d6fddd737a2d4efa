package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/activity"
	activityHttp "github.com/nekogravitycat/volunteer-booking-backend/internal/activity/http"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/auth"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/volunteer-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/ratelimit"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/volunteer-booking-backend/internal/user/http"
)

// Config holds the services and settings the router is assembled from.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *slog.Logger

	UserService     user.Service
	ActivityService activity.Service
	BookingService  booking.Service
	Usage           userHttp.UsageReporter
	JWTManager      *auth.JWTManager

	// RateLimit guards booking creation. Nil disables throttling.
	RateLimit gin.HandlerFunc
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Ready reports whether dependencies are reachable, for /healthz.
	Ready func(ctx context.Context) error
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()

	// Global Middleware:
	// - RequestID: Tags each request and echoes the ID back.
	// - AccessLog: Structured log line per request.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(RequestID(), AccessLog(logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	if cfg.IsProduction {
		config.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		config.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:8081", // Swagger
		}
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", requestIDHeader}
	config.ExposeHeaders = []string{requestIDHeader, "Retry-After"}
	if len(config.AllowOrigins) > 0 {
		r.Use(cors.New(config))
	}

	r.GET("/healthz", healthHandler(cfg.Ready))
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	rateLimit := cfg.RateLimit
	if rateLimit == nil {
		rateLimit = ratelimit.Noop()
	}

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.Usage)
	activityHandler := activityHttp.NewHandler(cfg.ActivityService, cfg.BookingService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		activityHttp.RegisterRoutes(v1, activityHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, rateLimit)
	}

	return r
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func healthHandler(ready func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ready != nil {
			if err := ready(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
