// Package i18n provides internationalization support for the patchwork service.
package i18n

// Error message translation keys.
const (
	// ErrKeyInvalidRequest indicates an invalid request.
	ErrKeyInvalidRequest = "error.invalid_request"
	// ErrKeyInternalError indicates an internal server error.
	ErrKeyInternalError = "error.internal_error"
	// ErrKeyNotFound indicates a resource was not found.
	ErrKeyNotFound = "error.not_found"
	// ErrKeyRateLimitExceeded indicates rate limit exceeded.
	ErrKeyRateLimitExceeded = "error.rate_limit_exceeded"
	// ErrKeyServiceUnavailable indicates the cache backend is unreachable.
	ErrKeyServiceUnavailable = "error.service_unavailable"
	// ErrKeyUsernameRequired indicates a missing username query parameter.
	ErrKeyUsernameRequired = "error.username_required"
	// ErrKeyUsernameInvalid indicates a username with forbidden characters.
	ErrKeyUsernameInvalid = "error.username_invalid"
	// ErrKeyProviderInvalid indicates an unknown provider.
	ErrKeyProviderInvalid = "error.provider_invalid"
	// ErrKeyGenerationFailed prefixes the error of a failed patchwork generation.
	ErrKeyGenerationFailed = "error.generation_failed"
	// ErrKeyInvalidCacheKey indicates a cache key that is not a hex SHA-256 digest.
	ErrKeyInvalidCacheKey = "error.invalid_cache_key"
)
