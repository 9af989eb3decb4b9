//go:build !integration

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestPrometheusMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(PrometheusMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	before := testutil.ToFloat64(HTTPRequestTotal.WithLabelValues("GET", "/test", "200"))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestTotal.WithLabelValues("GET", "/test", "200")))
}

func TestRecordGeneration(t *testing.T) {
	before := testutil.ToFloat64(PatchworkGenerationsTotal.WithLabelValues("lastfm", "success"))

	RecordGeneration("lastfm", 100*time.Millisecond, "success")

	assert.Equal(t, before+1, testutil.ToFloat64(PatchworkGenerationsTotal.WithLabelValues("lastfm", "success")))
}

func TestRecordCoverDownload(t *testing.T) {
	before := testutil.ToFloat64(CoverDownloadsTotal.WithLabelValues("failed"))

	RecordCoverDownload("failed")

	assert.Equal(t, before+1, testutil.ToFloat64(CoverDownloadsTotal.WithLabelValues("failed")))
}

func TestRecordCacheOperation(t *testing.T) {
	before := testutil.ToFloat64(CacheOperationsTotal.WithLabelValues("get", "hit"))

	RecordCacheOperation("get", "hit")

	assert.Equal(t, before+1, testutil.ToFloat64(CacheOperationsTotal.WithLabelValues("get", "hit")))
}

func TestRecordEvictions(t *testing.T) {
	before := testutil.ToFloat64(CacheEvictionsTotal.WithLabelValues("size"))

	RecordEvictions("size", 3)
	RecordEvictions("size", 0)

	assert.Equal(t, before+3, testutil.ToFloat64(CacheEvictionsTotal.WithLabelValues("size")))
}

func TestUpdateCacheMetrics(t *testing.T) {
	UpdateCacheMetrics(10, 2048)

	assert.Equal(t, float64(10), testutil.ToFloat64(CacheEntries))
	assert.Equal(t, float64(2048), testutil.ToFloat64(CacheSizeBytes))
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("redis", 1)

	assert.Equal(t, float64(1), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("redis")))
}
