package http

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/patchwork-service/internal/circuitbreaker"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker probes one dependency.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

// Check calls f.
func (f HealthCheckFunc) Check(ctx context.Context) error {
	return f(ctx)
}

type dependency struct {
	checker HealthChecker
	breaker *circuitbreaker.CircuitBreaker
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	mu      sync.RWMutex
	deps    map[string]*dependency
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler with no dependencies.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		deps:    make(map[string]*dependency),
		timeout: healthCheckTimeout,
	}
}

func (h *HealthHandler) dependency(name string) *dependency {
	d, ok := h.deps[name]
	if !ok {
		d = &dependency{}
		h.deps[name] = d
	}
	return d
}

// RegisterChecker adds a dependency probe to the readiness check.
func (h *HealthHandler) RegisterChecker(name string, checker HealthChecker) {
	if checker == nil {
		return
	}
	h.mu.Lock()
	h.dependency(name).checker = checker
	h.mu.Unlock()
}

// RegisterCircuitBreaker reports the breaker guarding name as <name>_circuit.
// An open breaker makes the service not ready.
func (h *HealthHandler) RegisterCircuitBreaker(name string, cb *circuitbreaker.CircuitBreaker) {
	if cb == nil {
		return
	}
	h.mu.Lock()
	h.dependency(name).breaker = cb
	h.mu.Unlock()
}

// Register registers health endpoints on the router.
func (h *HealthHandler) Register(router gin.IRoutes) {
	router.GET("/healthz", h.Liveness)
	router.GET("/readyz", h.Readiness)
}

// Liveness handles the liveness probe endpoint.
// @Summary     Liveness probe
// @Description Returns OK while the process is running.
// @Tags        Health
// @Produce     json
// @Success     200 {object} map[string]string "Service is alive"
// @Router      /healthz [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles the readiness probe endpoint.
// @Summary     Readiness probe
// @Description Probes the cache backend and reports the state of its circuit breaker.
// @Tags        Health
// @Produce     json
// @Success     200 {object} map[string]interface{} "Service is ready"
// @Failure     503 {object} map[string]interface{} "Service is not ready"
// @Router      /readyz [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	checks, ready := h.probe(ctx)

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
		return
	}
	if len(checks) == 0 {
		checks["service"] = "ok"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}

// probe runs every registered checker concurrently and collects breaker states.
func (h *HealthHandler) probe(ctx context.Context) (map[string]any, bool) {
	h.mu.RLock()
	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	deps := make([]dependency, len(names))
	for i, name := range names {
		deps[i] = *h.deps[name]
	}
	h.mu.RUnlock()

	errs := make([]error, len(deps))
	var wg sync.WaitGroup
	for i, d := range deps {
		if d.checker == nil {
			continue
		}
		wg.Go(func() {
			errs[i] = d.checker.Check(ctx)
		})
	}
	wg.Wait()

	checks := make(map[string]any, 2*len(deps))
	ready := true
	for i, d := range deps {
		name := names[i]
		if d.checker != nil {
			if errs[i] != nil {
				checks[name] = errs[i].Error()
				ready = false
			} else {
				checks[name] = "ok"
			}
		}
		if d.breaker != nil {
			stats := d.breaker.GetStats()
			checks[name+"_circuit"] = stats.State
			ready = ready && stats.IsHealthy
		}
	}
	return checks, ready
}
