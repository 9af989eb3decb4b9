//go:build !integration

package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/patchwork-service/config"
	"github.com/guttosm/patchwork-service/internal/analytics"
	"github.com/guttosm/patchwork-service/internal/circuitbreaker"
	httpapi "github.com/guttosm/patchwork-service/internal/http"
	"github.com/guttosm/patchwork-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testServices(t *testing.T) *ServiceComponents {
	t.Helper()
	store, err := repository.NewFilesystemCacheStore(t.TempDir())
	require.NoError(t, err)
	return InitializeServices(config.Load(), store)
}

func TestInitializeRouter(t *testing.T) {
	cfg := config.Config{
		Server: config.ServerConfig{
			RateLimit:   100,
			RateWindow:  time.Minute,
			CORSOrigins: []string{"https://example.com"},
			SwaggerUser: "docs",
			SwaggerPass: "secret",
		},
	}

	tests := []struct {
		name    string
		store   *StoreComponents
		tracker *analytics.Tracker
	}{
		{name: "without store", store: nil},
		{name: "with filesystem store", store: &StoreComponents{Backend: BackendFilesystem}},
		{
			name: "with tracker",
			tracker: analytics.NewTracker(config.AnalyticsConfig{
				Enabled: true,
				Host:    "stats.example.com",
				SiteID:  "1",
			}, nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			components := InitializeRouter(testServices(t), tt.store, tt.tracker, cfg)

			require.NotNil(t, components)
			assert.NotNil(t, components.Handler)
			assert.NotNil(t, components.HealthHandler)
			assert.Equal(t, 100, components.Config.RateLimit)
			assert.Equal(t, time.Minute, components.Config.RateWindow)
			assert.Equal(t, []string{"https://example.com"}, components.Config.CORSOrigins)
			assert.Equal(t, "docs", components.Config.SwaggerUser)
			assert.Equal(t, "secret", components.Config.SwaggerPass)
		})
	}
}

func TestInitializeRouter_ReadinessReflectsStore(t *testing.T) {
	tests := []struct {
		name       string
		check      error
		wantStatus int
	}{
		{name: "healthy backend", check: nil, wantStatus: http.StatusOK},
		{name: "unreachable backend", check: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &StoreComponents{
				Backend: BackendRedis,
				HealthCheck: httpapi.HealthCheckFunc(func(context.Context) error {
					return tt.check
				}),
				CircuitBreaker: circuitbreaker.New(circuitbreaker.Config{Name: "redis-cache"}),
			}
			components := InitializeRouter(testServices(t), store, nil, config.Config{})

			router := gin.New()
			components.HealthHandler.Register(router)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), "cache_redis")
		})
	}
}
