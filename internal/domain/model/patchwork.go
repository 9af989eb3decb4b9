// Package model defines the core domain entities for the patchwork service.
package model

// Provider identifies a listening statistics provider.
type Provider string

const (
	// ProviderLastFM resolves covers by rewriting Last.fm thumbnail URLs.
	ProviderLastFM Provider = "lastfm"
	// ProviderListenBrainz resolves covers through the Cover Art Archive.
	ProviderListenBrainz Provider = "listenbrainz"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	return p == ProviderLastFM || p == ProviderListenBrainz
}

// Border controls the separator between tiles.
type Border string

const (
	// BorderNormal draws a 1px white separator between tiles.
	BorderNormal Border = "normal"
	// BorderNone packs tiles edge to edge on a black canvas.
	BorderNone Border = "none"
)

// DefaultPeriod is used when no period is requested or the period is unknown.
const DefaultPeriod = "overall"

// PatchworkParams describes one cacheable patchwork request.
//
// @Description Normalized patchwork request parameters
type PatchworkParams struct {
	Username  string   `json:"username" example:"alice"`
	Period    string   `json:"period" example:"7day"`
	Rows      int      `json:"rows" example:"3"`
	Cols      int      `json:"cols" example:"3"`
	ImageSize int      `json:"imageSize" example:"150"`
	Border    Border   `json:"border" example:"normal"`
	Provider  Provider `json:"provider" example:"lastfm"`
}

// NoBorder reports whether tiles are placed without separators.
func (p PatchworkParams) NoBorder() bool {
	return p.Border == BorderNone
}

// BorderSize returns the separator width in pixels.
func (p PatchworkParams) BorderSize() int {
	if p.NoBorder() {
		return 0
	}
	return 1
}

// Cells returns the number of grid cells.
func (p PatchworkParams) Cells() int {
	return p.Rows * p.Cols
}

// Dimensions returns the canvas width and height in pixels.
func (p PatchworkParams) Dimensions() (width, height int) {
	b := p.BorderSize()
	width = p.ImageSize*p.Cols + b*(p.Cols-1)
	height = p.ImageSize*p.Rows + b*(p.Rows-1)
	return width, height
}

// Fields returns the parameters as a flat field map, the form used for fingerprinting.
func (p PatchworkParams) Fields() map[string]any {
	return map[string]any{
		"username":  p.Username,
		"period":    p.Period,
		"rows":      p.Rows,
		"cols":      p.Cols,
		"imageSize": p.ImageSize,
		"border":    string(p.Border),
		"provider":  string(p.Provider),
	}
}

// PatchworkResult is an encoded patchwork image and its dimensions.
type PatchworkResult struct {
	Image  []byte
	Width  int
	Height int
}
