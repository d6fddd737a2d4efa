package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/activity"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/api"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/auth"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/booking"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/membership"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/obs"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/ratelimit"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/user"
)

// Store is the persistence the container wires services onto.
// Production uses Postgres; tests use an in-memory store.
type Store struct {
	Users      user.Repository
	Activities activity.Repository
	Bookings   booking.Repository
	// Ping reports store reachability for /healthz.
	Ping func(ctx context.Context) error
}

// PgxStore builds a Store over a pgx pool.
func PgxStore(pool *pgxpool.Pool) Store {
	return Store{
		Users:      user.NewPgxRepository(pool),
		Activities: activity.NewPgxRepository(pool),
		Bookings:   booking.NewPgxRepository(pool),
		Ping:       pool.Ping,
	}
}

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Store        Store
	JWTSecret    string
	JWTTTL       time.Duration
	Logger       *slog.Logger

	Quotas   membership.QuotaTable
	Location *time.Location
	// Clock overrides time.Now for booking timestamps and quota weeks.
	Clock func() time.Time

	// RateCounter enables booking rate limiting when set.
	RateCounter        ratelimit.Counter
	RateLimitPerMinute int
	Publisher          booking.EventPublisher
	// Registry receives the service metrics; a fresh one is created when nil.
	Registry *prometheus.Registry
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	BookingService booking.Service
	Metrics        *obs.Metrics
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	metrics := obs.NewMetrics(reg)

	// User Module
	userService := user.NewService(cfg.Store.Users)

	// Activity Module
	activityService := activity.NewService(cfg.Store.Activities)

	// Membership Policy
	policy := membership.NewPolicy(cfg.Store.Bookings, cfg.Quotas,
		membership.WithLocation(cfg.Location),
		membership.WithClock(clock),
	)

	// Booking Module
	bookingService := booking.NewService(cfg.Store.Bookings, userService, activityService, policy,
		booking.WithClock(clock),
		booking.WithLogger(logger),
		booking.WithMetrics(metrics),
		booking.WithPublisher(cfg.Publisher),
	)

	var rateLimit gin.HandlerFunc
	if cfg.RateCounter != nil {
		rateLimit = ratelimit.NewLimiter(cfg.RateCounter, cfg.RateLimitPerMinute, time.Minute, "rl:booking", logger).
			OnReject(metrics.IncRateLimited).
			Middleware()
	}

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		Logger:          logger,
		UserService:     userService,
		ActivityService: activityService,
		BookingService:  bookingService,
		Usage:           policy,
		JWTManager:      jwtManager,
		RateLimit:       rateLimit,
		Metrics:         promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Ready:           cfg.Store.Ping,
	})

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		BookingService: bookingService,
		Metrics:        metrics,
	}
}
