// Package app provides application initialization and dependency injection.
package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/patchwork-service/config"
	"github.com/guttosm/patchwork-service/internal/analytics"
	"github.com/guttosm/patchwork-service/internal/http"
	"github.com/rs/zerolog/log"
)

// App is the wired application.
type App struct {
	Router     *gin.Engine
	Services   *ServiceComponents
	store      *StoreComponents
	tracker    *analytics.Tracker
	stopRouter func()
}

// InitializeApp creates and wires all application dependencies.
func InitializeApp(ctx context.Context, cfg config.Config) (*App, error) {
	InitializeLogger(cfg.Log)

	store, err := InitializeStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	services := InitializeServices(cfg, store.Store)
	tracker := analytics.NewTracker(cfg.Analytics, nil)
	routerComponents := InitializeRouter(services, store, tracker, cfg)
	router, stop := http.NewRouter(routerComponents.Handler, routerComponents.HealthHandler, routerComponents.Config)

	log.Info().
		Str("cache_backend", store.Backend).
		Bool("coalesce", cfg.Cache.Coalesce).
		Bool("analytics", tracker != nil).
		Msg("Application initialized")

	return &App{
		Router:     router,
		Services:   services,
		store:      store,
		tracker:    tracker,
		stopRouter: stop,
	}, nil
}

// Close stops background work and releases the cache backend.
func (a *App) Close(ctx context.Context) error {
	a.stopRouter()
	a.tracker.Wait()
	return a.store.Close(ctx)
}
