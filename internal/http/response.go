package http

import (
	"github.com/gin-gonic/gin"
	"github.com/guttosm/patchwork-service/internal/domain/dto"
	"github.com/guttosm/patchwork-service/internal/i18n"
	"github.com/guttosm/patchwork-service/internal/middleware"
)

// ResponseBuilder writes the JSON responses of the operator endpoints.
type ResponseBuilder struct {
	c *gin.Context
}

// NewResponseBuilder creates a new response builder for the given context.
func NewResponseBuilder(c *gin.Context) *ResponseBuilder {
	return &ResponseBuilder{c: c}
}

// JSON sends data as is with the given status code.
func (b *ResponseBuilder) JSON(statusCode int, data any) {
	b.c.JSON(statusCode, data)
}

// Error sends a translated error response with the given status code and message key.
// err, when set, is attached to the context for the error handler middleware to log.
func (b *ResponseBuilder) Error(statusCode int, messageKey string, err error) {
	if err != nil {
		_ = b.c.Error(err)
	}
	resp := dto.NewError(dto.ErrCodeFromStatus(statusCode), i18n.T(b.c, messageKey)).
		WithRequestID(middleware.GetRequestID(b.c))
	b.c.AbortWithStatusJSON(statusCode, resp)
}

// Text sends a plain-text body, the error format of the image endpoint.
func (b *ResponseBuilder) Text(statusCode int, message string, err error) {
	if err != nil {
		_ = b.c.Error(err)
	}
	b.c.Abort()
	b.c.String(statusCode, message)
}
