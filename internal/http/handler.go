// Package http exposes the patchwork service over HTTP with gin.
package http

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/patchwork-service/internal/analytics"
	"github.com/guttosm/patchwork-service/internal/domain/dto"
	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/guttosm/patchwork-service/internal/i18n"
	"github.com/guttosm/patchwork-service/internal/logger"
	"github.com/guttosm/patchwork-service/internal/metrics"
	"github.com/guttosm/patchwork-service/internal/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Response headers of the image endpoint.
const (
	HeaderCache          = middleware.CacheHeader
	HeaderGenerationTime = "X-Generation-Time"
	HeaderImageWidth     = "X-Image-Width"
	HeaderImageHeight    = "X-Image-Height"

	imageCacheControl = "public, max-age=31536000, immutable"
)

var cacheKeyPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Cache is the cache manager as seen by the handlers.
type Cache interface {
	GenerateKey(params model.PatchworkParams) string
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, period string) error
	Delete(ctx context.Context, key string) error
	Cleanup(ctx context.Context) (model.CleanupReport, error)
	Stats(ctx context.Context) (model.CacheStats, error)
}

// Generator produces a patchwork for a set of parameters.
type Generator interface {
	Generate(ctx context.Context, params model.PatchworkParams) (model.PatchworkResult, error)
}

// PageTracker records page views. Implementations must not block.
type PageTracker interface {
	TrackPageView(pv analytics.PageView)
}

// Handler provides the patchwork and cache HTTP handlers.
type Handler struct {
	cache     Cache
	generator Generator
	tracker   PageTracker
	group     *singleflight.Group
	log       zerolog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithCoalescing makes concurrent misses for the same key share one generation.
func WithCoalescing() HandlerOption {
	return func(h *Handler) {
		h.group = &singleflight.Group{}
	}
}

// WithTracker enables page view tracking on the image endpoint.
func WithTracker(t PageTracker) HandlerOption {
	return func(h *Handler) {
		h.tracker = t
	}
}

// NewHandler creates a new Handler instance.
func NewHandler(cache Cache, generator Generator, opts ...HandlerOption) *Handler {
	h := &Handler{
		cache:     cache,
		generator: generator,
		log:       logger.Component("http"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Patchwork handles GET /patchwork requests.
//
// @Summary      Generate a cover art patchwork
// @Description  Renders the user's top albums of a period as a JPEG grid. Results are cached per parameter set; X-Cache tells whether the image came from the cache.
// @Tags         Patchwork
// @Produce      jpeg
// @Param        username query string true  "Provider username" example(alice)
// @Param        period   query string false "Statistics period" default(overall)
// @Param        rows     query int    false "Grid rows (1-10)" default(3)
// @Param        cols     query int    false "Grid columns (1-10)" default(3)
// @Param        size     query int    false "Tile edge in pixels (50-300)" default(150)
// @Param        border   query string false "Tile separator" Enums(normal, none) default(normal)
// @Param        provider query string false "Statistics provider" Enums(lastfm, listenbrainz) default(lastfm)
// @Success      200 {file} binary "JPEG image"
// @Header       200 {string} X-Cache "HIT or MISS"
// @Header       200 {string} X-Generation-Time "Elapsed time, e.g. 840ms"
// @Header       200 {integer} X-Image-Width "Image width in pixels"
// @Header       200 {integer} X-Image-Height "Image height in pixels"
// @Failure      400 {string} string "Invalid parameters"
// @Failure      429 {object} dto.ErrorResponse "Too many requests - rate limit exceeded"
// @Failure      500 {string} string "Generation failed"
// @Router       /patchwork [get]
func (h *Handler) Patchwork(c *gin.Context) {
	start := time.Now()
	builder := NewResponseBuilder(c)

	var query dto.PatchworkQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		builder.Text(http.StatusBadRequest, i18n.T(c, i18n.ErrKeyInvalidRequest), err)
		return
	}
	params, err := query.Params()
	if err != nil {
		builder.Text(http.StatusBadRequest, i18n.T(c, validationMessageKey(err)), nil)
		return
	}

	if h.tracker != nil {
		h.tracker.TrackPageView(analytics.PageView{
			URL:       requestURL(c),
			UserAgent: c.Request.UserAgent(),
			ClientIP:  c.ClientIP(),
		})
	}

	ctx := c.Request.Context()
	key := h.cache.GenerateKey(params)
	if data, ok := h.cache.Get(ctx, key); ok {
		width, height := params.Dimensions()
		writeImage(c, data, "HIT", time.Since(start), width, height)
		return
	}

	result, err := h.generate(ctx, key, params)
	if err != nil {
		metrics.RecordGeneration(string(params.Provider), time.Since(start), "error")
		builder.Text(http.StatusInternalServerError, i18n.T(c, i18n.ErrKeyGenerationFailed)+": "+err.Error(), err)
		return
	}
	metrics.RecordGeneration(string(params.Provider), time.Since(start), "success")

	writeImage(c, result.Image, "MISS", time.Since(start), result.Width, result.Height)
}

// generate runs the pipeline and stores its output. With coalescing enabled,
// callers for the same key share the leader's result.
func (h *Handler) generate(ctx context.Context, key string, params model.PatchworkParams) (model.PatchworkResult, error) {
	run := func(ctx context.Context) (model.PatchworkResult, error) {
		result, err := h.generator.Generate(ctx, params)
		if err != nil {
			return model.PatchworkResult{}, err
		}
		if err := h.cache.Set(ctx, key, result.Image, params.Period); err != nil {
			h.log.Warn().Err(err).
				Str("cache_key", key).
				Str("request_id", middleware.RequestIDFromContext(ctx)).
				Msg("Failed to cache patchwork")
		}
		return result, nil
	}

	if h.group == nil {
		return run(ctx)
	}

	v, err, shared := h.group.Do(key, func() (any, error) {
		// Followers must not fail because the leader's client went away.
		return run(context.WithoutCancel(ctx))
	})
	if shared {
		h.log.Debug().
			Str("cache_key", key).
			Str("request_id", middleware.RequestIDFromContext(ctx)).
			Msg("Coalesced patchwork generation")
	}
	if err != nil {
		return model.PatchworkResult{}, err
	}
	return v.(model.PatchworkResult), nil
}

func writeImage(c *gin.Context, data []byte, cacheStatus string, elapsed time.Duration, width, height int) {
	c.Header(HeaderCache, cacheStatus)
	c.Header(HeaderGenerationTime, strconv.FormatInt(elapsed.Milliseconds(), 10)+"ms")
	c.Header(HeaderImageWidth, strconv.Itoa(width))
	c.Header(HeaderImageHeight, strconv.Itoa(height))
	c.Header("Cache-Control", imageCacheControl)
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, "image/jpeg", data)
}

func validationMessageKey(err error) string {
	switch {
	case errors.Is(err, dto.ErrUsernameRequired):
		return i18n.ErrKeyUsernameRequired
	case errors.Is(err, dto.ErrInvalidUsername):
		return i18n.ErrKeyUsernameInvalid
	case errors.Is(err, dto.ErrInvalidProvider):
		return i18n.ErrKeyProviderInvalid
	default:
		return i18n.ErrKeyInvalidRequest
	}
}

// requestURL rebuilds the absolute URL the client requested.
func requestURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}

// CacheStats handles GET /cache-stats requests.
//
// @Summary      Cache statistics
// @Description  Aggregates over all live cache entries.
// @Tags         Cache
// @Produce      json
// @Success      200 {object} model.CacheStats
// @Failure      500 {object} dto.ErrorResponse "Cache backend error"
// @Router       /cache-stats [get]
func (h *Handler) CacheStats(c *gin.Context) {
	builder := NewResponseBuilder(c)
	c.Header("Cache-Control", "no-cache")

	stats, err := h.cache.Stats(c.Request.Context())
	if err != nil {
		builder.Error(http.StatusInternalServerError, i18n.ErrKeyInternalError, err)
		return
	}
	builder.JSON(http.StatusOK, stats)
}

// DeleteCacheEntry handles DELETE /api/cache/:key requests.
//
// @Summary      Delete a cache entry
// @Description  Removes the cached image stored under key. Deleting an absent key succeeds.
// @Tags         Cache
// @Produce      json
// @Param        key path string true "Cache key (hex SHA-256)"
// @Success      200 {object} dto.DeleteResponse
// @Failure      400 {object} dto.ErrorResponse "Malformed key"
// @Failure      500 {object} dto.ErrorResponse "Cache backend error"
// @Router       /api/cache/{key} [delete]
func (h *Handler) DeleteCacheEntry(c *gin.Context) {
	builder := NewResponseBuilder(c)

	key := c.Param("key")
	if !cacheKeyPattern.MatchString(key) {
		builder.Error(http.StatusBadRequest, i18n.ErrKeyInvalidCacheKey, nil)
		return
	}
	if err := h.cache.Delete(c.Request.Context(), key); err != nil {
		builder.Error(http.StatusInternalServerError, i18n.ErrKeyInternalError, err)
		return
	}
	builder.JSON(http.StatusOK, dto.DeleteResponse{Key: key, Deleted: true})
}

// CleanupCache handles POST /api/cache/cleanup requests.
//
// @Summary      Run cache cleanup
// @Description  Runs the expiry, count and size eviction phases immediately.
// @Tags         Cache
// @Produce      json
// @Success      200 {object} dto.CleanupResponse
// @Failure      500 {object} dto.ErrorResponse "Cleanup failed"
// @Router       /api/cache/cleanup [post]
func (h *Handler) CleanupCache(c *gin.Context) {
	builder := NewResponseBuilder(c)
	start := time.Now()

	report, err := h.cache.Cleanup(c.Request.Context())
	if err != nil {
		builder.Error(http.StatusInternalServerError, i18n.ErrKeyInternalError, err)
		return
	}
	builder.JSON(http.StatusOK, dto.NewCleanupResponse(report, time.Since(start)))
}
