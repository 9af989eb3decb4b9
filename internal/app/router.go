// Package app provides router configuration.
package app

import (
	"github.com/guttosm/patchwork-service/config"
	"github.com/guttosm/patchwork-service/internal/analytics"
	"github.com/guttosm/patchwork-service/internal/http"
)

// RouterComponents holds router-related components.
type RouterComponents struct {
	Handler       *http.Handler
	HealthHandler *http.HealthHandler
	Config        http.RouterConfig
}

// InitializeRouter initializes HTTP handlers and router configuration.
func InitializeRouter(
	services *ServiceComponents,
	store *StoreComponents,
	tracker *analytics.Tracker,
	cfg config.Config,
) *RouterComponents {
	var opts []http.HandlerOption
	if cfg.Cache.Coalesce {
		opts = append(opts, http.WithCoalescing())
	}
	if tracker != nil {
		opts = append(opts, http.WithTracker(tracker))
	}
	handler := http.NewHandler(services.Cache, services.Generator, opts...)

	healthHandler := http.NewHealthHandler()
	if store != nil {
		healthHandler.RegisterChecker("cache_"+store.Backend, store.HealthCheck)
		healthHandler.RegisterCircuitBreaker("cache_"+store.Backend, store.CircuitBreaker)
	}

	routerConfig := http.DefaultRouterConfig()
	routerConfig.RateLimit = cfg.Server.RateLimit
	if cfg.Server.RateWindow > 0 {
		routerConfig.RateWindow = cfg.Server.RateWindow
	}
	routerConfig.CORSOrigins = cfg.Server.CORSOrigins
	routerConfig.SwaggerUser = cfg.Server.SwaggerUser
	routerConfig.SwaggerPass = cfg.Server.SwaggerPass

	return &RouterComponents{
		Handler:       handler,
		HealthHandler: healthHandler,
		Config:        routerConfig,
	}
}
