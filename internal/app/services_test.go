//go:build !integration

package app

import (
	"context"
	"testing"
	"time"

	"github.com/guttosm/patchwork-service/config"
	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/guttosm/patchwork-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeServices(t *testing.T) {
	store, err := repository.NewFilesystemCacheStore(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  config.Config
	}{
		{
			name: "creates services with defaults",
			cfg:  config.Load(),
		},
		{
			name: "creates services without lastfm key",
			cfg: config.Config{
				Cache: config.CacheConfig{
					MaxSizeMB:  1,
					MaxEntries: 10,
					TTLs:       map[string]time.Duration{"overall": time.Hour},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			components := InitializeServices(tt.cfg, store)

			require.NotNil(t, components)
			assert.NotNil(t, components.Cache)
			assert.NotNil(t, components.Generator)
		})
	}
}

func TestInitializeServices_CacheKeyIsStable(t *testing.T) {
	store, err := repository.NewFilesystemCacheStore(t.TempDir())
	require.NoError(t, err)
	components := InitializeServices(config.Load(), store)

	params := model.PatchworkParams{
		Username:  "alice",
		Period:    "7day",
		Rows:      3,
		Cols:      3,
		ImageSize: 150,
		Border:    model.BorderNormal,
		Provider:  model.ProviderLastFM,
	}

	first := components.Cache.GenerateKey(params)
	second := components.Cache.GenerateKey(params)

	assert.Len(t, first, 64)
	assert.Equal(t, first, second)

	_, ok := components.Cache.Get(context.Background(), first)
	assert.False(t, ok)
}
