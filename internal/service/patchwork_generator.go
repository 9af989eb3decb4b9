package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/guttosm/patchwork-service/internal/logger"
	"github.com/guttosm/patchwork-service/internal/provider"
	"github.com/rs/zerolog"
)

var (
	// ErrInsufficientCoverArt is returned when not a single cover could be downloaded.
	ErrInsufficientCoverArt = errors.New("failed to download any album covers")
	// ErrUnknownProvider is returned for a provider without a registered resolver.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Generator turns request parameters into an encoded patchwork.
type Generator struct {
	resolvers map[model.Provider]provider.CoverResolver
	fetcher   CoverFetcher
	log       zerolog.Logger
}

// NewGenerator creates a generator with one resolver per provider.
func NewGenerator(resolvers map[model.Provider]provider.CoverResolver, fetcher CoverFetcher) *Generator {
	return &Generator{
		resolvers: resolvers,
		fetcher:   fetcher,
		log:       logger.Component("generator"),
	}
}

// RequiredCovers is the number of cover URLs requested for a grid: the cell
// count plus a third extra to absorb items without artwork or failed downloads.
func RequiredCovers(rows, cols int) int {
	cells := rows * cols
	return cells + (cells+2)/3
}

// Generate resolves, downloads and composites the covers for params.
func (g *Generator) Generate(ctx context.Context, params model.PatchworkParams) (model.PatchworkResult, error) {
	resolver, ok := g.resolvers[params.Provider]
	if !ok {
		return model.PatchworkResult{}, fmt.Errorf("%w: %q", ErrUnknownProvider, params.Provider)
	}

	log := g.log.With().
		Str("username", params.Username).
		Str("provider", string(params.Provider)).
		Str("period", params.Period).
		Logger()
	start := time.Now()

	urls, err := provider.ResolveCovers(ctx, resolver, params.Username, params.Period, RequiredCovers(params.Rows, params.Cols))
	if err != nil {
		return model.PatchworkResult{}, err
	}
	log.Debug().Int("covers", len(urls)).Msg("Resolved cover URLs")

	cells := params.Cells()
	if len(urls) > cells {
		urls = urls[:cells]
	} else if len(urls) < cells {
		log.Warn().Int("found", len(urls)).Int("needed", cells).Msg("Fewer covers than grid cells")
	}

	tiles := g.fetcher.Fetch(ctx, urls, params.ImageSize)
	if len(tiles) == 0 {
		return model.PatchworkResult{}, ErrInsufficientCoverArt
	}

	result, err := Composite(tiles, params)
	if err != nil {
		return model.PatchworkResult{}, err
	}

	log.Info().
		Int("tiles", len(tiles)).
		Int("width", result.Width).
		Int("height", result.Height).
		Str("size", humanize.Bytes(uint64(len(result.Image)))).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("Patchwork created")
	return result, nil
}
