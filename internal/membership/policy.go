package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/timerange"
)

// RejectReason explains why a Decision did not allow the booking.
type RejectReason string

const (
	ReasonTierNotAllowed      RejectReason = "tier_not_allowed"
	ReasonWeeklyLimitExceeded RejectReason = "weekly_limit_exceeded"
)

// Decision is the outcome of a tier eligibility check.
type Decision struct {
	Allowed bool
	Reason  RejectReason

	// Set when the weekly quota was evaluated.
	CurrentCount int
	Limit        Limit

	// Set for ReasonTierNotAllowed.
	AllowedTiers []Tier
}

// Usage is a user's confirmed-booking count for the current week.
type Usage struct {
	WeekStart time.Time
	WeekEnd   time.Time
	Count     int
	Limit     Limit
}

// Remaining returns how many more bookings fit in the week, or -1 when unlimited.
func (u Usage) Remaining() int {
	if u.Limit.IsUnlimited() {
		return -1
	}
	if r := int(u.Limit) - u.Count; r > 0 {
		return r
	}
	return 0
}

// WeeklyCounter counts a user's confirmed bookings created within [start, end].
type WeeklyCounter interface {
	CountConfirmedBookingsInWindow(ctx context.Context, userID string, start, end time.Time) (int, error)
}

// Policy enforces per-activity tier allow-lists and per-tier weekly quotas.
type Policy struct {
	counter WeeklyCounter
	quotas  QuotaTable
	loc     *time.Location
	now     func() time.Time
}

type PolicyOption func(*Policy)

// WithClock overrides the source of "now" used to pick the current week.
func WithClock(now func() time.Time) PolicyOption {
	return func(p *Policy) { p.now = now }
}

// WithLocation sets the time zone whose Monday starts the week.
func WithLocation(loc *time.Location) PolicyOption {
	return func(p *Policy) {
		if loc != nil {
			p.loc = loc
		}
	}
}

func NewPolicy(counter WeeklyCounter, quotas QuotaTable, opts ...PolicyOption) *Policy {
	if quotas == nil {
		quotas = DefaultQuotas()
	}
	p := &Policy{
		counter: counter,
		quotas:  quotas,
		loc:     time.UTC,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithCounter returns a copy of the policy that counts through counter,
// such as a repository bound to an open transaction.
func (p *Policy) WithCounter(counter WeeklyCounter) *Policy {
	cp := *p
	cp.counter = counter
	return &cp
}

// Check decides whether a user on tier may book an activity restricted to allowedTiers.
// An empty allowedTiers means the activity is open to every tier.
//
// The weekly count is anchored on when bookings were made, not when their
// activities take place.
func (p *Policy) Check(ctx context.Context, tier Tier, userID string, allowedTiers []Tier) (Decision, error) {
	if len(allowedTiers) > 0 && !ContainsTier(allowedTiers, tier) {
		return Decision{
			Reason:       ReasonTierNotAllowed,
			AllowedTiers: allowedTiers,
		}, nil
	}

	limit, err := p.quotas.LimitFor(tier)
	if err != nil {
		return Decision{}, err
	}
	if limit.IsUnlimited() {
		return Decision{Allowed: true, Limit: limit}, nil
	}

	weekStart, weekEnd := p.CurrentWeek()
	count, err := p.counter.CountConfirmedBookingsInWindow(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return Decision{}, fmt.Errorf("count weekly bookings: %w", err)
	}

	if count >= int(limit) {
		return Decision{
			Reason:       ReasonWeeklyLimitExceeded,
			CurrentCount: count,
			Limit:        limit,
		}, nil
	}
	return Decision{Allowed: true, CurrentCount: count, Limit: limit}, nil
}

// Usage reports the user's confirmed bookings made this week against the tier's cap.
func (p *Policy) Usage(ctx context.Context, tier Tier, userID string) (Usage, error) {
	limit, err := p.quotas.LimitFor(tier)
	if err != nil {
		return Usage{}, err
	}

	weekStart, weekEnd := p.CurrentWeek()
	count, err := p.counter.CountConfirmedBookingsInWindow(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return Usage{}, fmt.Errorf("count weekly bookings: %w", err)
	}

	return Usage{
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Count:     count,
		Limit:     limit,
	}, nil
}

// CurrentWeek returns the boundaries of the week containing "now" in the policy's location.
func (p *Policy) CurrentWeek() (time.Time, time.Time) {
	return timerange.WeekBoundaries(p.now().In(p.loc))
}
