//go:build !integration

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/patchwork-service/internal/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBreaker(t *testing.T) *circuitbreaker.CircuitBreaker {
	t.Helper()
	cfg := circuitbreaker.DefaultConfig()
	cfg.FailureThreshold = 1
	cb := circuitbreaker.New(cfg)
	_ = cb.Execute(context.Background(), func() error { return errors.New("down") })
	require.True(t, cb.IsOpen())
	return cb
}

func TestHealthHandler_Liveness(t *testing.T) {
	router := gin.New()
	NewHealthHandler().Register(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name           string
		setupHandler   func(t *testing.T) *HealthHandler
		expectedStatus int
		expectedChecks map[string]any
	}{
		{
			name: "no checkers",
			setupHandler: func(t *testing.T) *HealthHandler {
				return NewHealthHandler()
			},
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]any{"service": "ok"},
		},
		{
			name: "healthy store and closed breaker",
			setupHandler: func(t *testing.T) *HealthHandler {
				h := NewHealthHandler()
				h.RegisterChecker("cache_store", HealthCheckFunc(func(context.Context) error { return nil }))
				h.RegisterCircuitBreaker("cache_store", circuitbreaker.New(circuitbreaker.DefaultConfig()))
				return h
			},
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]any{"cache_store": "ok", "cache_store_circuit": "closed"},
		},
		{
			name: "failing store",
			setupHandler: func(t *testing.T) *HealthHandler {
				h := NewHealthHandler()
				h.RegisterChecker("cache_store", HealthCheckFunc(func(context.Context) error { return errors.New("connection refused") }))
				return h
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedChecks: map[string]any{"cache_store": "connection refused"},
		},
		{
			name: "open breaker",
			setupHandler: func(t *testing.T) *HealthHandler {
				h := NewHealthHandler()
				h.RegisterCircuitBreaker("cache_store", openBreaker(t))
				return h
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedChecks: map[string]any{"cache_store_circuit": "open"},
		},
		{
			name: "nil registrations are ignored",
			setupHandler: func(t *testing.T) *HealthHandler {
				h := NewHealthHandler()
				h.RegisterChecker("cache_store", nil)
				h.RegisterCircuitBreaker("cache_store", nil)
				return h
			},
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]any{"service": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			tt.setupHandler(t).Register(router)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			var body struct {
				Status string         `json:"status"`
				Checks map[string]any `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedChecks, body.Checks)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "ok", body.Status)
			} else {
				assert.Equal(t, "degraded", body.Status)
			}
		})
	}
}

func TestHealthHandler_Readiness_SlowCheckerTimesOut(t *testing.T) {
	h := NewHealthHandler()
	h.timeout = 20 * time.Millisecond
	h.RegisterChecker("cache_store", HealthCheckFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	h.RegisterChecker("other", HealthCheckFunc(func(context.Context) error { return nil }))

	router := gin.New()
	h.Register(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"cache_store":"context deadline exceeded"`)
	assert.Contains(t, w.Body.String(), `"other":"ok"`)
}
