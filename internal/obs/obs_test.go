package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestNewLogger_WritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "booking-api", "warn")

	logger.Info("dropped")
	logger.Warn("kept", "activity_id", "a1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "booking-api", entry["service"])
	assert.Equal(t, "a1", entry["activity_id"])
}

func TestMetrics_ObserveAdmission(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveAdmission("accepted", 10*time.Millisecond)
	m.ObserveAdmission("accepted", 20*time.Millisecond)
	m.ObserveAdmission("activity_full", time.Millisecond)
	m.IncEventFailure()
	m.IncRateLimited()

	assert.Equal(t, 2.0, counterValue(t, m.admissions.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, counterValue(t, m.admissions.WithLabelValues("activity_full")))
	assert.Equal(t, 1.0, counterValue(t, m.eventFailures))
	assert.Equal(t, 1.0, counterValue(t, m.rateLimited))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAdmission("accepted", time.Second)
		m.IncEventFailure()
		m.IncRateLimited()
	})
}

func TestSetupTracing_Disabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
