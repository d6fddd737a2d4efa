package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/volunteer")
	t.Setenv("JWT_SECRET", "secret")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, "UTC", cfg.BookingTimezone)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, "volunteer.events", cfg.AMQPExchange)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.OTelEnabled)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("BOOKING_TIMEZONE", "Asia/Taipei")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 5, cfg.RateLimitPerMinute)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Taipei", loc.String())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing dsn", map[string]string{"DB_DSN": ""}},
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"bad timezone", map[string]string{"BOOKING_TIMEZONE": "Mars/Olympus"}},
		{"bad int", map[string]string{"DB_MAX_CONNS": "many"}},
		{"zero conns", map[string]string{"DB_MAX_CONNS": "0"}},
		{"zero rate", map[string]string{"RATE_LIMIT_PER_MINUTE": "0"}},
		{"ratio", map[string]string{"OTEL_SAMPLING_RATIO": "1.5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
