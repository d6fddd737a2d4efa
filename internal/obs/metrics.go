package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "volunteer_booking"

// Metrics holds the booking service collectors. A nil *Metrics records nothing.
type Metrics struct {
	admissions       *prometheus.CounterVec
	admissionLatency *prometheus.HistogramVec
	eventFailures    prometheus.Counter
	rateLimited      prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		admissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admission_decisions_total",
				Help:      "Booking attempts by outcome.",
			},
			[]string{"outcome"},
		),
		admissionLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "admission_duration_seconds",
				Help:      "Time spent deciding a booking attempt.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		eventFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_publish_failures_total",
				Help:      "Booking events that could not be published.",
			},
		),
		rateLimited: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Booking requests rejected by the rate limiter.",
			},
		),
	}
}

// ObserveAdmission records one booking attempt. Outcome is "accepted",
// "replayed", a rejection reason or "error".
func (m *Metrics) ObserveAdmission(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(outcome).Inc()
	m.admissionLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) IncEventFailure() {
	if m == nil {
		return
	}
	m.eventFailures.Inc()
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
