// Package app provides cache store selection and setup.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/guttosm/patchwork-service/config"
	"github.com/guttosm/patchwork-service/internal/circuitbreaker"
	"github.com/guttosm/patchwork-service/internal/http"
	"github.com/guttosm/patchwork-service/internal/metrics"
	"github.com/guttosm/patchwork-service/internal/repository"
	"github.com/rs/zerolog/log"
)

// Cache backend names accepted by CACHE_PROVIDER.
const (
	BackendFilesystem = "filesystem"
	BackendRedis      = "redis"
	BackendKV         = "kv"
	BackendMongoDB    = "mongodb"
)

// StoreComponents holds the selected cache backend and its supervision hooks.
type StoreComponents struct {
	Store          repository.CacheStore
	Backend        string
	CircuitBreaker *circuitbreaker.CircuitBreaker
	HealthCheck    http.HealthChecker
	closers        []func(ctx context.Context) error
}

// Close releases the backend connections.
func (s *StoreComponents) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range s.closers {
		errs = append(errs, closeFn(ctx))
	}
	return errors.Join(errs...)
}

// InitializeStore builds the backend named by cfg.Cache.Provider. Remote backends
// are wrapped in a circuit breaker; when they cannot be reached at startup the
// local filesystem store is used instead.
func InitializeStore(ctx context.Context, cfg config.Config) (*StoreComponents, error) {
	switch cfg.Cache.Provider {
	case BackendRedis, BackendKV:
		components, err := initializeRedisStore(ctx, cfg)
		if err == nil {
			return components, nil
		}
		log.Error().Err(err).Msg("Failed to connect to Redis - falling back to filesystem cache")
	case BackendMongoDB:
		components, err := initializeMongoStore(cfg)
		if err == nil {
			return components, nil
		}
		log.Error().Err(err).Msg("Failed to connect to MongoDB - falling back to filesystem cache")
	case BackendFilesystem, "":
	default:
		log.Warn().Str("provider", cfg.Cache.Provider).Msg("Unknown cache provider - using filesystem cache")
	}
	return initializeFilesystemStore(cfg.Cache)
}

func initializeFilesystemStore(cfg config.CacheConfig) (*StoreComponents, error) {
	store, err := repository.NewFilesystemCacheStore(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("initialize filesystem cache: %w", err)
	}
	log.Info().Str("dir", cfg.Dir).Str("index", store.MetadataFile()).Msg("Using filesystem cache")
	return &StoreComponents{Store: store, Backend: BackendFilesystem}, nil
}

func initializeRedisStore(ctx context.Context, cfg config.Config) (*StoreComponents, error) {
	client, err := repository.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("Connected to Redis")

	store := repository.NewRedisCacheStore(client, repository.WithScanBatch(cfg.Cache.ScanBatch))
	guarded := repository.NewCacheStoreWithCircuitBreaker(store, newStoreCircuitBreaker("redis-cache", cfg.CircuitBreaker))
	return &StoreComponents{
		Store:          guarded,
		Backend:        BackendRedis,
		CircuitBreaker: guarded.GetCircuitBreaker(),
		HealthCheck:    http.HealthCheckFunc(store.Ping),
		closers: []func(context.Context) error{
			func(context.Context) error { return client.Close() },
		},
	}, nil
}

func initializeMongoStore(cfg config.Config) (*StoreComponents, error) {
	db, err := repository.NewMongoDBWithConfig(cfg.Database.URI, cfg.Database.DatabaseName, cfg.Database.Collection, repository.DefaultMongoConfig())
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.Database.DatabaseName).Msg("Connected to MongoDB")

	guarded := repository.NewCacheStoreWithCircuitBreaker(repository.NewMongoCacheStore(db.Images), newStoreCircuitBreaker("mongodb-cache", cfg.CircuitBreaker))
	return &StoreComponents{
		Store:          guarded,
		Backend:        BackendMongoDB,
		CircuitBreaker: guarded.GetCircuitBreaker(),
		HealthCheck:    http.HealthCheckFunc(db.HealthCheck),
		closers:        []func(context.Context) error{db.Close},
	}, nil
}

// newStoreCircuitBreaker creates a breaker that mirrors its state into metrics.
// Unset thresholds keep the breaker defaults.
func newStoreCircuitBreaker(name string, cfg config.CircuitBreakerConfig) *circuitbreaker.CircuitBreaker {
	cbConfig := circuitbreaker.DefaultConfig()
	cbConfig.Name = name
	if cfg.FailureThreshold > 0 {
		cbConfig.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.SuccessThreshold > 0 {
		cbConfig.SuccessThreshold = cfg.SuccessThreshold
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	cbConfig.OnStateChange = func(name string, from, to circuitbreaker.State) {
		metrics.SetCircuitBreakerState(name, int(to))
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
	}

	metrics.SetCircuitBreakerState(name, int(circuitbreaker.StateClosed))
	return circuitbreaker.New(cbConfig)
}
