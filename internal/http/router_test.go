//go:build !integration

package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guttosm/patchwork-service/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNewRouter_Routes(t *testing.T) {
	router := newTestRouter(t, NewHandler(new(mocks.MockCacheManager), new(mocks.MockGenerator)))

	routes := map[string]bool{}
	for _, r := range router.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, expected := range []string{
		"GET /patchwork",
		"GET /patchwork.jpg",
		"GET /cache-stats",
		"GET /api/cache-stats.json",
		"DELETE /api/cache/:key",
		"POST /api/cache/cleanup",
		"GET /healthz",
		"GET /readyz",
		"GET /metrics",
		"GET /swagger/*any",
	} {
		assert.True(t, routes[expected], "missing route %s", expected)
	}
}

func TestNewRouter_RateLimitSparesInfrastructure(t *testing.T) {
	cache := new(mocks.MockCacheManager)
	cache.On("Stats", mock.Anything).Return(testStats(), nil)
	router, stop := NewRouter(NewHandler(cache, new(mocks.MockGenerator)), NewHealthHandler(), RouterConfig{
		RateLimit:  1,
		RateWindow: time.Minute,
	})
	defer stop()

	assert.Equal(t, http.StatusOK, get(router, "/cache-stats").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "/cache-stats").Code)
	assert.Equal(t, http.StatusOK, get(router, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(router, "/healthz").Code)
}

func TestNewRouter_CORS(t *testing.T) {
	router := newTestRouter(t, NewHandler(new(mocks.MockCacheManager), new(mocks.MockGenerator)))

	req := httptest.NewRequest(http.MethodOptions, "/patchwork", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewRouter_SwaggerBasicAuth(t *testing.T) {
	router, stop := NewRouter(nil, nil, RouterConfig{SwaggerUser: "admin", SwaggerPass: "secret"})
	defer stop()

	w := get(router, "/swagger/index.html")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
