//go:build !integration

package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/guttosm/patchwork-service/config"
	"github.com/guttosm/patchwork-service/internal/circuitbreaker"
	"github.com/guttosm/patchwork-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeConfig(t *testing.T, provider string) config.Config {
	t.Helper()
	return config.Config{
		Cache: config.CacheConfig{
			Provider:  provider,
			Dir:       filepath.Join(t.TempDir(), "images"),
			ScanBatch: 10,
		},
		Redis: config.RedisConfig{URL: "redis://127.0.0.1:1/0"},
		CircuitBreaker: config.CircuitBreakerConfig{
			FailureThreshold: 3,
			SuccessThreshold: 1,
			Timeout:          time.Second,
		},
	}
}

func TestInitializeStore_Filesystem(t *testing.T) {
	tests := []struct {
		name     string
		provider string
	}{
		{name: "explicit filesystem", provider: BackendFilesystem},
		{name: "empty provider", provider: ""},
		{name: "unknown provider", provider: "memcached"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			components, err := InitializeStore(context.Background(), storeConfig(t, tt.provider))

			require.NoError(t, err)
			assert.Equal(t, BackendFilesystem, components.Backend)
			assert.NotNil(t, components.Store)
			assert.Nil(t, components.CircuitBreaker)
			assert.Nil(t, components.HealthCheck)
			assert.NoError(t, components.Close(context.Background()))
		})
	}
}

func TestInitializeStore_RedisFallsBackWhenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	components, err := InitializeStore(ctx, storeConfig(t, BackendRedis))

	require.NoError(t, err)
	assert.Equal(t, BackendFilesystem, components.Backend)
}

func TestInitializeStore_RedisInvalidURLFallsBack(t *testing.T) {
	cfg := storeConfig(t, BackendKV)
	cfg.Redis.URL = "not-a-url"

	components, err := InitializeStore(context.Background(), cfg)

	require.NoError(t, err)
	assert.Equal(t, BackendFilesystem, components.Backend)
}

func TestInitializeStore_Redis(t *testing.T) {
	srv := miniredis.RunT(t)
	cfg := storeConfig(t, BackendKV)
	cfg.Redis.URL = "redis://" + srv.Addr() + "/0"
	ctx := context.Background()

	components, err := InitializeStore(ctx, cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, components.Close(ctx)) }()

	assert.Equal(t, BackendRedis, components.Backend)
	require.NotNil(t, components.CircuitBreaker)
	assert.Equal(t, circuitbreaker.StateClosed, components.CircuitBreaker.State())
	require.NotNil(t, components.HealthCheck)
	assert.NoError(t, components.HealthCheck.Check(ctx))

	require.NoError(t, components.Store.Set(ctx, "abc", []byte{1, 2, 3}, time.Hour))

	data, ok, err := components.Store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.True(t, srv.Exists(repository.RedisImagePrefix+"abc"))
}

func TestNewStoreCircuitBreaker(t *testing.T) {
	t.Run("zero values keep defaults", func(t *testing.T) {
		cb := newStoreCircuitBreaker("redis-cache", config.CircuitBreakerConfig{})

		stats := cb.GetStats()
		assert.Equal(t, "redis-cache", cb.Name())
		assert.Equal(t, circuitbreaker.StateClosed, cb.State())
		assert.True(t, stats.IsHealthy)
	})

	t.Run("opens after configured failures", func(t *testing.T) {
		cb := newStoreCircuitBreaker("mongodb-cache", config.CircuitBreakerConfig{
			FailureThreshold: 2,
			Timeout:          time.Hour,
		})
		fail := func() error { return assert.AnError }

		_ = cb.Execute(context.Background(), fail)
		assert.Equal(t, circuitbreaker.StateClosed, cb.State())
		_ = cb.Execute(context.Background(), fail)
		assert.Equal(t, circuitbreaker.StateOpen, cb.State())
	})
}

func TestInitializeStore_Redis_BreakerUsesCircuitBreakerConfig(t *testing.T) {
	srv := miniredis.RunT(t)
	cfg := storeConfig(t, BackendRedis)
	cfg.Redis = config.RedisConfig{URL: "redis://" + srv.Addr() + "/0"}
	cfg.CircuitBreaker = config.CircuitBreakerConfig{FailureThreshold: 1, Timeout: time.Hour}
	ctx := context.Background()

	components, err := InitializeStore(ctx, cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, components.Close(ctx)) }()
	require.Equal(t, BackendRedis, components.Backend)

	srv.SetError("ERR unavailable")
	assert.Error(t, components.Store.Set(ctx, "abc", []byte{1}, time.Hour))
	srv.SetError("")

	assert.Equal(t, circuitbreaker.StateOpen, components.CircuitBreaker.State())
}
