// Package repository provides the image cache storage backends.
package repository

import (
	"context"
	"time"

	"github.com/guttosm/patchwork-service/internal/domain/model"
)

// CacheStore is the contract shared by every cache backend.
//
// A maxSize or maxEntries of zero or less disables the corresponding bound.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Entries(ctx context.Context) ([]model.CacheEntry, error)
	Cleanup(ctx context.Context, maxSize int64, maxEntries int) (model.CleanupReport, error)
}

var (
	_ CacheStore = (*FilesystemCacheStore)(nil)
	_ CacheStore = (*RedisCacheStore)(nil)
	_ CacheStore = (*MongoCacheStore)(nil)
	_ CacheStore = (*CacheStoreWithCircuitBreaker)(nil)
)

const defaultScanBatch = 100

type storeOptions struct {
	now       func() time.Time
	scanBatch int64
}

// StoreOption configures a cache backend.
type StoreOption func(*storeOptions)

// WithClock overrides the time source used for entry timestamps and expiry.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithScanBatch sets the page size used when enumerating remote entries.
func WithScanBatch(n int) StoreOption {
	return func(o *storeOptions) {
		if n > 0 {
			o.scanBatch = int64(n)
		}
	}
}

func applyStoreOptions(opts []StoreOption) storeOptions {
	o := storeOptions{
		now:       time.Now,
		scanBatch: defaultScanBatch,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
