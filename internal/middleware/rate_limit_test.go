//go:build !integration

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time           { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestLimiter(t *testing.T, rate int, window time.Duration, exempt ...string) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewShardedRateLimiter(rate, window, 4, exempt...)
	rl.now = clock.Now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestNewShardedRateLimiter(t *testing.T) {
	tests := []struct {
		name       string
		numShards  int
		wantShards int
	}{
		{name: "zero uses default", numShards: 0, wantShards: defaultNumShards},
		{name: "negative uses default", numShards: -3, wantShards: defaultNumShards},
		{name: "custom", numShards: 8, wantShards: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewShardedRateLimiter(10, time.Minute, tt.numShards)
			defer rl.Stop()

			_, perShard := rl.Stats()
			assert.Len(t, perShard, tt.wantShards)
		})
	}
}

func TestRateLimiter_Take(t *testing.T) {
	rl, clock := newTestLimiter(t, 3, time.Minute)

	for want := 2; want >= 0; want-- {
		allowed, remaining := rl.take("203.0.113.7")
		require.True(t, allowed)
		assert.Equal(t, want, remaining)
	}

	allowed, remaining := rl.take("203.0.113.7")
	assert.False(t, allowed)
	assert.Zero(t, remaining)

	allowed, _ = rl.take("198.51.100.1")
	assert.True(t, allowed, "budgets are per client")

	clock.Advance(time.Minute)
	allowed, remaining = rl.take("203.0.113.7")
	assert.True(t, allowed, "a new window restores the budget")
	assert.Equal(t, 2, remaining)
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, 90*time.Second, "/healthz", "/swagger")

	router := gin.New()
	router.Use(RequestID(), rl.RateLimit())
	for _, path := range []string{"/patchwork", "/healthz", "/swagger/index.html"} {
		router.GET(path, func(c *gin.Context) { c.Status(http.StatusOK) })
	}

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send("/patchwork")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send("/patchwork").Code)

	w = send("/patchwork")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "90", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	assert.Contains(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	for _, path := range []string{"/healthz", "/swagger/index.html"} {
		w = send(path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"), path)
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl, clock := newTestLimiter(t, 5, time.Minute)

	rl.take("idle")
	clock.Advance(90 * time.Second)
	rl.take("active")

	total, _ := rl.Stats()
	require.Equal(t, 2, total)

	clock.Advance(45 * time.Second)
	rl.sweep()

	total, perShard := rl.Stats()
	assert.Equal(t, 1, total)
	sum := 0
	for _, n := range perShard {
		sum += n
	}
	assert.Equal(t, total, sum)
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}
