package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/patchwork-service/internal/domain/dto"
	"github.com/guttosm/patchwork-service/internal/i18n"
	"github.com/guttosm/patchwork-service/internal/logger"
)

// Recovery returns a middleware that turns a panic into a 500.
// Requests under plainTextPaths get a plain-text body like the image endpoint's
// other failures; all other routes get the JSON error envelope.
func Recovery(plainTextPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			requestID := GetRequestID(c)
			log := logger.Component("recovery")
			log.Error().
				Str("request_id", requestID).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic")

			abortInternal(c, requestID, plainTextPaths)
		}()
		c.Next()
	}
}

// abortInternal writes the 500 response in the format the route expects.
func abortInternal(c *gin.Context, requestID string, plainTextPaths []string) {
	if hasPathPrefix(c.Request.URL.Path, plainTextPaths) {
		c.Abort()
		c.String(http.StatusInternalServerError, i18n.T(c, i18n.ErrKeyGenerationFailed))
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		dto.NewError(dto.ErrCodeInternal, i18n.T(c, i18n.ErrKeyInternalError)).WithRequestID(requestID))
}
