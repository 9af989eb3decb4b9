// Package metrics provides Prometheus metrics collection for the patchwork service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, path, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestTotal tracks total HTTP requests by method, path, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// PatchworkGenerationsTotal tracks patchwork generations by provider and status.
	PatchworkGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchwork_generations_total",
			Help: "Total number of patchwork generations",
		},
		[]string{"provider", "status"},
	)

	// PatchworkGenerationDuration tracks end-to-end generation time.
	PatchworkGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "patchwork_generation_duration_seconds",
			Help:    "Patchwork generation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
	)

	// CoverDownloadsTotal tracks individual cover downloads by result.
	CoverDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cover_downloads_total",
			Help: "Total number of cover downloads",
		},
		[]string{"result"},
	)

	// CacheOperationsTotal tracks cache operations.
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"},
	)

	// CacheEvictionsTotal tracks removed entries by cleanup phase.
	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache entries removed by cleanup",
		},
		[]string{"reason"},
	)

	// CacheEntries tracks the live entry count seen by the last stats pass.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of live cache entries",
		},
	)

	// CacheSizeBytes tracks the aggregate payload size seen by the last stats pass.
	CacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_size_bytes",
			Help: "Aggregate size of cached images in bytes",
		},
	)

	// CircuitBreakerState tracks breaker state (0 closed, 1 open, 2 half-open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)
)

// PrometheusMiddleware returns a Gin middleware that collects HTTP metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration)
		HTTPRequestTotal.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordGeneration records metrics for a patchwork generation.
func RecordGeneration(provider string, duration time.Duration, status string) {
	PatchworkGenerationDuration.Observe(duration.Seconds())
	PatchworkGenerationsTotal.WithLabelValues(provider, status).Inc()
}

// RecordCoverDownload records the outcome of one cover download.
func RecordCoverDownload(result string) {
	CoverDownloadsTotal.WithLabelValues(result).Inc()
}

// RecordCacheOperation records metrics for a cache operation.
func RecordCacheOperation(operation, result string) {
	CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordEvictions records entries removed by a cleanup phase.
func RecordEvictions(reason string, count int) {
	if count > 0 {
		CacheEvictionsTotal.WithLabelValues(reason).Add(float64(count))
	}
}

// UpdateCacheMetrics updates cache entry count and size gauges.
func UpdateCacheMetrics(entries int, sizeBytes int64) {
	CacheEntries.Set(float64(entries))
	CacheSizeBytes.Set(float64(sizeBytes))
}

// SetCircuitBreakerState records the state of a named circuit breaker.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
