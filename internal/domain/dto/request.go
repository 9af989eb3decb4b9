// Package dto defines Data Transfer Objects for HTTP request and response handling.
//
// DTOs are used to decouple the HTTP layer from the domain model,
// providing validation and normalization for API communication.
package dto

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/guttosm/patchwork-service/internal/domain/model"
)

const (
	// DefaultGridSize is used for rows and cols when absent or invalid.
	DefaultGridSize = 3
	// MinGridSize and MaxGridSize bound rows and cols.
	MinGridSize = 1
	MaxGridSize = 10
	// DefaultImageSize is the default tile edge in pixels.
	DefaultImageSize = 150
	// MinImageSize and MaxImageSize bound the tile edge.
	MinImageSize = 50
	MaxImageSize = 300
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// PatchworkQuery is the raw query string of the generation endpoint.
//
// All fields are bound as strings so that malformed numbers fall back to
// their defaults instead of failing the binding.
//
// @Description Patchwork generation query parameters
type PatchworkQuery struct {
	Username string `form:"username" example:"alice"`
	Period   string `form:"period" example:"7day"`
	Rows     string `form:"rows" example:"3"`
	Cols     string `form:"cols" example:"3"`
	Size     string `form:"size" example:"150"`
	Border   string `form:"border" example:"normal"`
	Provider string `form:"provider" example:"lastfm"`
} // @name PatchworkQuery

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message for ValidationError.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

var (
	// ErrUsernameRequired is returned when no username is supplied.
	ErrUsernameRequired = &ValidationError{
		Field:   "username",
		Message: "is required",
	}
	// ErrInvalidUsername is returned when the username has characters outside [A-Za-z0-9_.-].
	ErrInvalidUsername = &ValidationError{
		Field:   "username",
		Message: "may only contain letters, digits, underscores, dots and hyphens",
	}
	// ErrInvalidProvider is returned for an unknown provider.
	ErrInvalidProvider = &ValidationError{
		Field:   "provider",
		Message: "must be lastfm or listenbrainz",
	}
)

// Params validates the query and returns the normalized request parameters.
func (q PatchworkQuery) Params() (model.PatchworkParams, error) {
	username := strings.TrimSpace(q.Username)
	if username == "" {
		return model.PatchworkParams{}, ErrUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return model.PatchworkParams{}, ErrInvalidUsername
	}

	prov := model.ProviderLastFM
	if p := strings.ToLower(strings.TrimSpace(q.Provider)); p != "" {
		prov = model.Provider(p)
		if !prov.Valid() {
			return model.PatchworkParams{}, ErrInvalidProvider
		}
	}

	period := strings.TrimSpace(q.Period)
	if period == "" {
		period = model.DefaultPeriod
	}

	border := model.BorderNormal
	if strings.EqualFold(strings.TrimSpace(q.Border), string(model.BorderNone)) {
		border = model.BorderNone
	}

	return model.PatchworkParams{
		Username:  username,
		Period:    period,
		Rows:      clampInt(q.Rows, DefaultGridSize, MinGridSize, MaxGridSize),
		Cols:      clampInt(q.Cols, DefaultGridSize, MinGridSize, MaxGridSize),
		ImageSize: clampInt(q.Size, DefaultImageSize, MinImageSize, MaxImageSize),
		Border:    border,
		Provider:  prov,
	}, nil
}

// clampInt parses s and bounds it to [lo, hi]. Empty or unparsable input yields def.
func clampInt(s string, def, lo, hi int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return min(max(n, lo), hi)
}
