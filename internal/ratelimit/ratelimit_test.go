package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/auth"
)

type memCounter struct {
	mu   sync.Mutex
	hits map[string]int64
	err  error
}

func (m *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if m.hits == nil {
		m.hits = make(map[string]int64)
	}
	m.hits[key]++
	return m.hits[key], nil
}

func newEngine(l *Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/book", func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			auth.SetUserID(c, id)
		}
		c.Next()
	}, l.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func hit(r *gin.Engine, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/book", nil)
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLimiter_ThrottlesPerUser(t *testing.T) {
	counter := &memCounter{}
	rejected := 0
	l := NewLimiter(counter, 2, time.Minute, "test", nil).OnReject(func() { rejected++ })
	r := newEngine(l)

	assert.Equal(t, http.StatusCreated, hit(r, "u1").Code)
	assert.Equal(t, http.StatusCreated, hit(r, "u1").Code)

	w := hit(r, "u1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"rate_limited"`)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, 1, rejected)

	assert.Equal(t, http.StatusCreated, hit(r, "u2").Code, "other users keep their own window")
	assert.Contains(t, counter.hits, "test:u1")
}

func TestLimiter_FallsBackToClientIP(t *testing.T) {
	counter := &memCounter{}
	r := newEngine(NewLimiter(counter, 1, time.Minute, "test", nil))

	assert.Equal(t, http.StatusCreated, hit(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "").Code)
	assert.Contains(t, counter.hits, "test:ip:192.0.2.1")
}

func TestLimiter_FailsOpen(t *testing.T) {
	r := newEngine(NewLimiter(&memCounter{err: errors.New("redis down")}, 1, time.Minute, "test", nil))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusCreated, hit(r, "u1").Code)
	}
}

func TestNoop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", Noop(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
