package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/activity"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/membership"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/obs"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/user"
)

const maxIdempotencyKeyLen = 256

// idempotencyNamespace scopes booking IDs derived from idempotency keys.
var idempotencyNamespace = uuid.MustParse("b7a4f3c2-1d5e-4f60-9a8b-3c2d1e0f9a7b")

type Service interface {
	// BookActivity admits the user into the activity or explains why not.
	// Checks run in order: capacity, tier policy, schedule conflict.
	BookActivity(ctx context.Context, req BookRequest) (*Booking, error)

	// CheckEligibility runs the same checks as BookActivity without
	// locking or writing. A nil error means the booking would be admitted now.
	CheckEligibility(ctx context.Context, userID, activityID string) (*Eligibility, error)

	// GetByID returns one of the user's own bookings.
	GetByID(ctx context.Context, id, userID string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
}

type service struct {
	repo       Repository
	users      user.Service
	activities activity.Service
	policy     *membership.Policy

	publisher EventPublisher
	metrics   *obs.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

type Option func(*service)

func WithPublisher(p EventPublisher) Option {
	return func(s *service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithMetrics(m *obs.Metrics) Option {
	return func(s *service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the source of booking timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, users user.Service, activities activity.Service, policy *membership.Policy, opts ...Option) Service {
	s := &service{
		repo:       repo,
		users:      users,
		activities: activities,
		policy:     policy,
		publisher:  nopPublisher{},
		logger:     slog.Default(),
		tracer:     otel.Tracer("github.com/nekogravitycat/volunteer-booking-backend/internal/booking"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// admission carries the counts observed while checking a booking.
type admission struct {
	confirmedCount int
	decision       membership.Decision
}

func (s *service) BookActivity(ctx context.Context, req BookRequest) (_ *Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "booking.BookActivity", trace.WithAttributes(
		attribute.String("user.id", req.UserID),
		attribute.String("activity.id", req.ActivityID),
	))
	started := time.Now()
	outcome := "accepted"
	defer func() {
		if err != nil {
			outcome = outcomeOf(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.DebugContext(ctx, "booking rejected",
				"user_id", req.UserID,
				"activity_id", req.ActivityID,
				"reason", outcome,
			)
		}
		span.SetAttributes(attribute.String("booking.outcome", outcome))
		span.End()
		s.metrics.ObserveAdmission(outcome, time.Since(started))
	}()

	var bookingID string
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		if len(key) > maxIdempotencyKeyLen {
			return nil, ErrInvalidIdempotency
		}
		bookingID = uuid.NewSHA1(idempotencyNamespace, []byte("booking:"+req.UserID+":"+key)).String()
	}

	u, act, err := s.resolve(ctx, req.UserID, req.ActivityID)
	if err != nil {
		return nil, err
	}

	var (
		booked   *Booking
		replayed bool
	)
	err = s.repo.WithinBookingLock(ctx, u.ID, act.ID, func(ctx context.Context, repo Repository) error {
		if bookingID != "" {
			prev, err := s.replay(ctx, repo, bookingID, u.ID, act.ID)
			switch {
			case err == nil:
				booked, replayed = prev, true
				return nil
			case !errors.Is(err, ErrNotFound):
				return err
			}
		}

		if _, err := s.admit(ctx, repo, u, act); err != nil {
			return err
		}

		b := &Booking{
			ID:            bookingID,
			UserID:        u.ID,
			ActivityID:    act.ID,
			Status:        StatusConfirmed,
			Timestamp:     s.now().UTC(),
			ActivityTitle: act.Title,
			StartTime:     act.StartTime,
			EndTime:       act.EndTime,
		}
		if err := repo.Insert(ctx, b); err != nil {
			return err
		}
		booked = b
		return nil
	})
	if errors.Is(err, ErrDuplicateID) && bookingID != "" {
		booked, err = s.replay(ctx, s.repo, bookingID, u.ID, act.ID)
		replayed = err == nil
	}
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	if replayed {
		outcome = "replayed"
		return booked, nil
	}

	s.logger.InfoContext(ctx, "booking confirmed",
		"booking_id", booked.ID,
		"user_id", booked.UserID,
		"activity_id", booked.ActivityID,
	)
	s.publishConfirmed(ctx, booked)
	return booked, nil
}

// replay returns the booking stored under an idempotent id, or ErrNotFound.
// A booking for another activity under the same key is ErrIdempotencyConflict.
func (s *service) replay(ctx context.Context, repo Repository, bookingID, userID, activityID string) (*Booking, error) {
	prev, err := repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if prev.UserID != userID || prev.ActivityID != activityID {
		return nil, ErrIdempotencyConflict
	}
	return prev, nil
}

func (s *service) CheckEligibility(ctx context.Context, userID, activityID string) (*Eligibility, error) {
	ctx, span := s.tracer.Start(ctx, "booking.CheckEligibility")
	defer span.End()

	u, act, err := s.resolve(ctx, userID, activityID)
	if err != nil {
		return nil, err
	}

	adm, err := s.admit(ctx, s.repo, u, act)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	return &Eligibility{
		ActivityID:     act.ID,
		Capacity:       act.Capacity,
		ConfirmedCount: adm.confirmedCount,
		Tier:           u.Tier,
		WeeklyCount:    adm.decision.CurrentCount,
		WeeklyLimit:    adm.decision.Limit,
	}, nil
}

func (s *service) GetByID(ctx context.Context, id, userID string) (*Booking, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	// Other users' bookings are indistinguishable from missing ones.
	if b.UserID != userID {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, s.mapError(ctx, err)
	}
	return bookings, total, nil
}

func (s *service) resolve(ctx context.Context, userID, activityID string) (*user.User, *activity.Activity, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		if errors.Is(err, user.ErrInvalidTier) {
			return nil, nil, ErrInvalidUserTier.WithCause(err)
		}
		return nil, nil, s.mapError(ctx, err)
	}

	act, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, activity.ErrNotFound) {
			return nil, nil, ErrActivityNotFound
		}
		return nil, nil, s.mapError(ctx, err)
	}
	return u, act, nil
}

// admit runs capacity, tier and conflict checks against repo, stopping at the first rejection.
func (s *service) admit(ctx context.Context, repo Repository, u *user.User, act *activity.Activity) (admission, error) {
	var adm admission

	ok, count, err := NewCapacityChecker(repo).HasCapacity(ctx, act)
	if err != nil {
		return adm, err
	}
	adm.confirmedCount = count
	if !ok {
		return adm, ErrActivityFull.WithDetails(ActivityFullDetails{
			Capacity:     act.Capacity,
			CurrentCount: count,
		})
	}

	decision, err := s.policy.WithCounter(repo).Check(ctx, u.Tier, u.ID, act.AllowedTiers)
	if err != nil {
		return adm, err
	}
	adm.decision = decision
	if !decision.Allowed {
		switch decision.Reason {
		case membership.ReasonTierNotAllowed:
			return adm, ErrTierNotAllowed.WithDetails(TierNotAllowedDetails{
				AllowedTiers: decision.AllowedTiers,
			})
		default:
			return adm, ErrWeeklyLimitExceeded.WithDetails(WeeklyLimitDetails{
				CurrentCount: decision.CurrentCount,
				Limit:        int(decision.Limit),
			})
		}
	}

	conflict, err := NewConflictDetector(repo).FindConflict(ctx, u.ID, act.StartTime, act.EndTime)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return adm, ErrUserNotFound
		}
		return adm, err
	}
	if conflict != nil {
		return adm, ErrSchedulingConflict.WithDetails(ConflictDetails{
			ConflictingBookingID:  conflict.BookingID,
			ConflictingActivityID: conflict.ActivityID,
		})
	}
	return adm, nil
}

// mapError passes domain errors through and reports anything else as ErrStoreUnavailable.
func (s *service) mapError(ctx context.Context, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, membership.ErrUnknownTier) {
		return ErrQuotaMisconfigured.WithCause(err)
	}
	if errors.Is(err, context.Canceled) {
		return ErrRequestCanceled.WithCause(err)
	}
	s.logger.ErrorContext(ctx, "booking store error", "error", err)
	return ErrStoreUnavailable.WithCause(err)
}

func (s *service) publishConfirmed(ctx context.Context, b *Booking) {
	ev := ConfirmedEvent{
		BookingID:  b.ID,
		UserID:     b.UserID,
		ActivityID: b.ActivityID,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Timestamp:  b.Timestamp,
	}
	if err := s.publisher.PublishJSON(ctx, RoutingKeyConfirmed, ev); err != nil {
		s.metrics.IncEventFailure()
		s.logger.ErrorContext(ctx, "publish booking event failed",
			"booking_id", b.ID,
			"error", err,
		)
	}
}

func outcomeOf(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Reason != "" {
		return appErr.Reason
	}
	return "error"
}
