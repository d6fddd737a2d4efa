// Package ratelimit throttles booking attempts per caller with a fixed window
// shared through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/auth"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/response"
)

var ErrRateLimited = apperror.NewWithReason(http.StatusTooManyRequests, "rate_limited", "too many booking attempts, slow down")

// Counter increments the hit count for key within the current window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter is a fixed-window Counter backed by Redis, shared by every API instance.
type RedisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	ms := window.Milliseconds()
	if ms <= 0 {
		ms = time.Minute.Milliseconds()
	}
	res, err := fixedWindowScript.Run(ctx, c.rdb, []string{key}, ms).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}

// Limiter allows at most limit requests per caller per window.
type Limiter struct {
	counter Counter
	limit   int
	window  time.Duration
	prefix  string
	logger  *slog.Logger
	// onReject is called for every rejected request.
	onReject func()
}

func NewLimiter(counter Counter, limit int, window time.Duration, prefix string, logger *slog.Logger) *Limiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{counter: counter, limit: limit, window: window, prefix: prefix, logger: logger}
}

// OnReject registers fn to run whenever a request is throttled.
func (l *Limiter) OnReject(fn func()) *Limiter {
	l.onReject = fn
	return l
}

// Middleware throttles by authenticated user, falling back to client IP.
// Counter failures let the request through.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := auth.GetUserID(c)
		if caller == "" {
			caller = "ip:" + c.ClientIP()
		}
		key := l.prefix + ":" + caller

		count, err := l.counter.Incr(c.Request.Context(), key, l.window)
		if err != nil {
			l.logger.WarnContext(c.Request.Context(), "rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if count > int64(l.limit) {
			if l.onReject != nil {
				l.onReject()
			}
			c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			response.Error(c, ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Noop returns a middleware that never throttles.
func Noop() gin.HandlerFunc {
	return func(c *gin.Context) { c.Next() }
}
