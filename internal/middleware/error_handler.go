package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/patchwork-service/internal/logger"
	"github.com/rs/zerolog"
)

// ErrorHandler returns a middleware that logs errors attached to the gin context.
// Errors behind a 4xx response are logged at warn level. When the handler wrote
// nothing, a 500 is sent in the format of the route (see Recovery).
func ErrorHandler(plainTextPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		level := zerolog.ErrorLevel
		if status := c.Writer.Status(); c.Writer.Written() && status < http.StatusInternalServerError {
			level = zerolog.WarnLevel
		}

		requestID := GetRequestID(c)
		log := logger.Component("http")
		log.WithLevel(level).
			Str("request_id", requestID).
			Strs("errors", c.Errors.Errors()).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request error")

		if !c.Writer.Written() {
			abortInternal(c, requestID, plainTextPaths)
		}
	}
}
