package http

import (
	"github.com/gin-gonic/gin"
)

// imagePaths serve JPEG bodies and are excluded from gzip.
var imagePaths = []string{"/patchwork"}

// registerPatchworkRoutes registers the image endpoint and its alias.
func registerPatchworkRoutes(router gin.IRoutes, handler *Handler) {
	if handler == nil {
		return
	}
	router.GET("/patchwork", handler.Patchwork)
	router.GET("/patchwork.jpg", handler.Patchwork)
}

// registerCacheRoutes registers the statistics and operator endpoints.
func registerCacheRoutes(router *gin.Engine, handler *Handler) {
	if handler == nil {
		return
	}
	router.GET("/cache-stats", handler.CacheStats)

	api := router.Group("/api")
	api.GET("/cache-stats.json", handler.CacheStats)
	api.DELETE("/cache/:key", handler.DeleteCacheEntry)
	api.POST("/cache/cleanup", handler.CleanupCache)
}
