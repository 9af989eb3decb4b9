package dto

import (
	"net/http"
	"time"

	"github.com/guttosm/patchwork-service/internal/domain/model"
)

const (
	// ErrCodeInvalidRequest indicates an invalid request.
	ErrCodeInvalidRequest = "invalid_request"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound = "not_found"
	// ErrCodeRateLimit indicates rate limit exceeded.
	ErrCodeRateLimit = "rate_limit_exceeded"
	// ErrCodeUnavailable indicates a dependency is not reachable.
	ErrCodeUnavailable = "service_unavailable"
	// ErrCodeTimeout indicates a request timeout.
	ErrCodeTimeout = "timeout"
)

// ErrorResponse represents a standardized error response for the JSON endpoints.
// The image endpoint answers with plain text instead.
// @Description Standardized error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"not_found"`
	Message   string    `json:"message,omitempty" example:"cache entry not found"`
	RequestID string    `json:"request_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	Timestamp time.Time `json:"timestamp" example:"2025-01-28T10:00:00Z"`
} // @name ErrorResponse

// NewError creates a new ErrorResponse with the given code and message.
func NewError(code, message string) ErrorResponse {
	return ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithRequestID adds a request ID to the error response.
func (e ErrorResponse) WithRequestID(requestID string) ErrorResponse {
	e.RequestID = requestID
	return e
}

// ErrCodeFromStatus returns the appropriate error code for an HTTP status.
func ErrCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case http.StatusServiceUnavailable:
		return ErrCodeUnavailable
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return ErrCodeTimeout
	default:
		return ErrCodeInternal
	}
}

// DeleteResponse is returned by the cache delete endpoint.
// @Description Result of an explicit cache delete
type DeleteResponse struct {
	Key     string `json:"key" example:"6128f31f4804d9fa48d8a851608e08808e6e6753069f95b3eddb3e2538c36750"`
	Deleted bool   `json:"deleted" example:"true"`
} // @name DeleteResponse

// CleanupResponse is returned by the manual cleanup endpoint.
// @Description Result of a manual cache cleanup
type CleanupResponse struct {
	model.CleanupReport
	Removed    int   `json:"removed" example:"3"`
	DurationMS int64 `json:"durationMs" example:"12"`
} // @name CleanupResponse

// NewCleanupResponse builds a CleanupResponse from a cleanup report.
func NewCleanupResponse(report model.CleanupReport, elapsed time.Duration) CleanupResponse {
	return CleanupResponse{
		CleanupReport: report,
		Removed:       report.Removed(),
		DurationMS:    elapsed.Milliseconds(),
	}
}
