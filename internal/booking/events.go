package booking

import (
	"context"
	"time"
)

// RoutingKeyConfirmed is the routing key for ConfirmedEvent.
const RoutingKeyConfirmed = "booking.confirmed"

// ConfirmedEvent is published after a booking commits.
type ConfirmedEvent struct {
	BookingID  string    `json:"booking_id"`
	UserID     string    `json:"user_id"`
	ActivityID string    `json:"activity_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventPublisher delivers booking events to a broker.
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

type nopPublisher struct{}

func (nopPublisher) PublishJSON(context.Context, string, any) error { return nil }
