package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/guttosm/patchwork-service/internal/metrics"
	"github.com/guttosm/patchwork-service/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterConfig holds router configuration options.
type RouterConfig struct {
	RateLimit   int
	RateWindow  time.Duration
	CORSOrigins []string
	SwaggerUser string
	SwaggerPass string
}

// DefaultRouterConfig returns the default router configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		RateLimit:  60,
		RateWindow: time.Minute,
	}
}

// infrastructurePaths are never rate limited.
var infrastructurePaths = []string{"/healthz", "/readyz", "/metrics", "/swagger"}

// NewRouter creates and configures the Gin router for the patchwork service.
// The returned stop function releases the rate limiter.
func NewRouter(handler *Handler, healthHandler *HealthHandler, cfg RouterConfig) (*gin.Engine, func()) {
	router := gin.New()

	stop := configureGlobalMiddleware(router, &cfg)
	registerInfrastructureRoutes(router, healthHandler, &cfg)
	registerPatchworkRoutes(router, handler)
	registerCacheRoutes(router, handler)

	return router, stop
}

// configureGlobalMiddleware sets up middleware applied to all routes.
func configureGlobalMiddleware(router *gin.Engine, cfg *RouterConfig) func() {
	allowedOrigins := cfg.CORSOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Accept-Encoding", "Accept-Language", "Cache-Control", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", HeaderCache, HeaderGenerationTime, HeaderImageWidth, HeaderImageHeight},
		MaxAge:        12 * time.Hour,
	}))

	router.Use(
		middleware.RequestID(),
		middleware.Recovery(imagePaths...),
		metrics.PrometheusMiddleware(),
		middleware.Compression(imagePaths...),
		middleware.RequestLogger(),
		middleware.ErrorHandler(imagePaths...),
	)

	if cfg.RateLimit <= 0 {
		return func() {}
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, infrastructurePaths...)
	router.Use(limiter.RateLimit())
	return limiter.Stop
}

// registerInfrastructureRoutes registers health, metrics, and documentation routes.
func registerInfrastructureRoutes(router *gin.Engine, healthHandler *HealthHandler, cfg *RouterConfig) {
	if healthHandler != nil {
		healthHandler.Register(router)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger with optional basic auth
	if cfg.SwaggerUser != "" && cfg.SwaggerPass != "" {
		authorized := router.Group("/swagger", gin.BasicAuth(gin.Accounts{
			cfg.SwaggerUser: cfg.SwaggerPass,
		}))
		authorized.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	} else {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
