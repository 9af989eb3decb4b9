// Package app provides service initialization.
package app

import (
	"net/http"

	"github.com/guttosm/patchwork-service/config"
	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/guttosm/patchwork-service/internal/provider"
	"github.com/guttosm/patchwork-service/internal/repository"
	"github.com/guttosm/patchwork-service/internal/service"
	"github.com/rs/zerolog/log"
)

// ServiceComponents holds service-related components.
type ServiceComponents struct {
	Cache     *service.CacheManager
	Generator *service.Generator
}

// InitializeServices builds the cover resolvers, the generation pipeline and
// the single cache manager shared by all requests.
func InitializeServices(cfg config.Config, store repository.CacheStore) *ServiceComponents {
	providerOpts := provider.Options{
		Client:    &http.Client{Timeout: cfg.Providers.RequestTimeout},
		UserAgent: cfg.Providers.UserAgent,
	}

	if cfg.Providers.LastFMAPIKey == "" {
		log.Warn().Msg("LASTFM_API_KEY is not set - lastfm requests will fail")
	}
	lastfmOpts := providerOpts
	lastfmOpts.BaseURL = cfg.Providers.LastFMAPIURL
	listenBrainzOpts := providerOpts
	listenBrainzOpts.BaseURL = cfg.Providers.ListenBrainzAPIURL

	resolvers := map[model.Provider]provider.CoverResolver{
		model.ProviderLastFM:       provider.NewLastFM(cfg.Providers.LastFMAPIKey, lastfmOpts),
		model.ProviderListenBrainz: provider.NewListenBrainz(listenBrainzOpts, cfg.Providers.CoverArtAPIURL),
	}

	// Per-attempt timeouts come from the fetcher config.
	fetcher := service.NewImageFetcher(&http.Client{}, service.FetcherConfig{
		Concurrency: cfg.Fetcher.Concurrency,
		Timeout:     cfg.Fetcher.Timeout,
		Retries:     cfg.Fetcher.Retries,
		BatchDelay:  cfg.Fetcher.BatchDelay,
		UserAgent:   cfg.Providers.UserAgent,
	})

	cache := service.NewCacheManager(store, service.CacheManagerConfig{
		MaxSize:    cfg.Cache.MaxSizeBytes(),
		MaxEntries: cfg.Cache.MaxEntries,
		TTLs:       cfg.Cache.TTLs,
	})

	return &ServiceComponents{
		Cache:     cache,
		Generator: service.NewGenerator(resolvers, fetcher),
	}
}
