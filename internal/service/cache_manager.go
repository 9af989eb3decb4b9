// Package service contains the patchwork generation pipeline and the cache manager.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/guttosm/patchwork-service/internal/logger"
	"github.com/guttosm/patchwork-service/internal/metrics"
	"github.com/guttosm/patchwork-service/internal/repository"
	"github.com/rs/zerolog"
)

// DefaultTTLs are the per-period lifetimes used when none are configured.
var DefaultTTLs = map[string]time.Duration{
	"7day":    6 * time.Hour,
	"1month":  12 * time.Hour,
	"3month":  24 * time.Hour,
	"6month":  48 * time.Hour,
	"12month": 72 * time.Hour,
	"overall": 168 * time.Hour,
}

// CacheManagerConfig bounds the cache.
type CacheManagerConfig struct {
	MaxSize    int64
	MaxEntries int
	TTLs       map[string]time.Duration
}

// CacheManager derives cache keys, applies TTL policy and bounds the store
// before every insert.
type CacheManager struct {
	store repository.CacheStore
	cfg   CacheManagerConfig
	now   func() time.Time
	log   zerolog.Logger
}

// NewCacheManager creates a manager over store.
func NewCacheManager(store repository.CacheStore, cfg CacheManagerConfig) *CacheManager {
	ttls := make(map[string]time.Duration, len(DefaultTTLs))
	for period, ttl := range DefaultTTLs {
		ttls[period] = ttl
	}
	for period, ttl := range cfg.TTLs {
		if ttl > 0 {
			ttls[period] = ttl
		}
	}
	cfg.TTLs = ttls

	return &CacheManager{
		store: store,
		cfg:   cfg,
		now:   time.Now,
		log:   logger.Component("cache"),
	}
}

// GenerateKey returns the cache key for params.
func (m *CacheManager) GenerateKey(params model.PatchworkParams) string {
	return GenerateKey(params)
}

// TTL returns the lifetime for a period, falling back to "overall".
func (m *CacheManager) TTL(period string) time.Duration {
	if ttl, ok := m.cfg.TTLs[period]; ok {
		return ttl
	}
	return m.cfg.TTLs[model.DefaultPeriod]
}

// Get returns the cached image for key. Store errors are logged and reported
// as a miss.
func (m *CacheManager) Get(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := m.store.Get(ctx, key)
	if err != nil {
		m.log.Warn().Err(err).Str("cache_key", key).Msg("Cache read failed, treating as miss")
		metrics.RecordCacheOperation("get", "error")
		return nil, false
	}
	if !ok {
		metrics.RecordCacheOperation("get", "miss")
		return nil, false
	}
	metrics.RecordCacheOperation("get", "hit")
	return data, true
}

// Set bounds the store and then inserts the image with the period's TTL.
// A failed cleanup does not prevent the insert.
func (m *CacheManager) Set(ctx context.Context, key string, data []byte, period string) error {
	if _, err := m.Cleanup(ctx); err != nil {
		m.log.Warn().Err(err).Msg("Cache cleanup before insert failed")
	}

	ttl := m.TTL(period)
	if err := m.store.Set(ctx, key, data, ttl); err != nil {
		metrics.RecordCacheOperation("set", "error")
		return fmt.Errorf("cache set: %w", err)
	}
	metrics.RecordCacheOperation("set", "success")
	m.log.Debug().
		Str("cache_key", key).
		Str("period", period).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Dur("ttl", ttl).
		Msg("Stored patchwork in cache")
	return nil
}

// Delete removes an entry.
func (m *CacheManager) Delete(ctx context.Context, key string) error {
	if err := m.store.Delete(ctx, key); err != nil {
		metrics.RecordCacheOperation("delete", "error")
		return fmt.Errorf("cache delete: %w", err)
	}
	metrics.RecordCacheOperation("delete", "success")
	return nil
}

// Cleanup runs the store's expiry, count and size phases with the configured bounds.
func (m *CacheManager) Cleanup(ctx context.Context) (model.CleanupReport, error) {
	report, err := m.store.Cleanup(ctx, m.cfg.MaxSize, m.cfg.MaxEntries)
	metrics.RecordEvictions(repository.ReasonExpired, report.Expired)
	metrics.RecordEvictions(repository.ReasonCount, report.CountEvicted)
	metrics.RecordEvictions(repository.ReasonSize, report.SizeEvicted)
	return report, err
}

// Stats aggregates over all live entries.
func (m *CacheManager) Stats(ctx context.Context) (model.CacheStats, error) {
	entries, err := m.store.Entries(ctx)
	if err != nil {
		return model.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}

	now := m.now()
	var stats model.CacheStats
	var oldest, newest int64
	for _, e := range entries {
		if e.Expired(now) {
			continue
		}
		if stats.TotalEntries == 0 || e.CreatedAt < oldest {
			oldest = e.CreatedAt
		}
		if stats.TotalEntries == 0 || e.CreatedAt > newest {
			newest = e.CreatedAt
		}
		stats.TotalEntries++
		stats.TotalSize += e.Size
		stats.TotalHits += e.Hits
	}

	stats.TotalSizeMB = fmt.Sprintf("%.2f", float64(stats.TotalSize)/1024/1024)
	if stats.TotalEntries > 0 {
		stats.AvgSize = float64(stats.TotalSize) / float64(stats.TotalEntries)
		stats.OldestEntry = &oldest
		stats.NewestEntry = &newest
	}

	metrics.UpdateCacheMetrics(stats.TotalEntries, stats.TotalSize)
	return stats, nil
}
