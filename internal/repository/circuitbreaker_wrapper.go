package repository

import (
	"context"
	"errors"
	"time"

	"github.com/guttosm/patchwork-service/internal/circuitbreaker"
	"github.com/guttosm/patchwork-service/internal/domain/model"
)

// CacheStoreWithCircuitBreaker guards a remote CacheStore with a circuit breaker.
// While the circuit is open reads degrade to misses instead of waiting on a
// backend that is known to be down.
type CacheStoreWithCircuitBreaker struct {
	store          CacheStore
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewCacheStoreWithCircuitBreaker wraps store with cb.
func NewCacheStoreWithCircuitBreaker(store CacheStore, cb *circuitbreaker.CircuitBreaker) *CacheStoreWithCircuitBreaker {
	return &CacheStoreWithCircuitBreaker{
		store:          store,
		circuitBreaker: cb,
	}
}

type getResult struct {
	data []byte
	ok   bool
}

// Get returns a miss when the circuit is open.
func (r *CacheStoreWithCircuitBreaker) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := circuitbreaker.ExecuteWithResult(ctx, r.circuitBreaker, func() (getResult, error) {
		data, ok, err := r.store.Get(ctx, key)
		return getResult{data: data, ok: ok}, err
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil, false, nil
	}
	return res.data, res.ok, err
}

// Set stores the entry with circuit breaker protection.
func (r *CacheStoreWithCircuitBreaker) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return r.circuitBreaker.Execute(ctx, func() error {
		return r.store.Set(ctx, key, data, ttl)
	})
}

// Delete removes the entry with circuit breaker protection.
func (r *CacheStoreWithCircuitBreaker) Delete(ctx context.Context, key string) error {
	return r.circuitBreaker.Execute(ctx, func() error {
		return r.store.Delete(ctx, key)
	})
}

// Entries enumerates entries with circuit breaker protection.
func (r *CacheStoreWithCircuitBreaker) Entries(ctx context.Context) ([]model.CacheEntry, error) {
	return circuitbreaker.ExecuteWithResult(ctx, r.circuitBreaker, func() ([]model.CacheEntry, error) {
		return r.store.Entries(ctx)
	})
}

// Cleanup runs cleanup with circuit breaker protection.
func (r *CacheStoreWithCircuitBreaker) Cleanup(ctx context.Context, maxSize int64, maxEntries int) (model.CleanupReport, error) {
	return circuitbreaker.ExecuteWithResult(ctx, r.circuitBreaker, func() (model.CleanupReport, error) {
		return r.store.Cleanup(ctx, maxSize, maxEntries)
	})
}

// GetCircuitBreaker returns the underlying circuit breaker for monitoring.
func (r *CacheStoreWithCircuitBreaker) GetCircuitBreaker() *circuitbreaker.CircuitBreaker {
	return r.circuitBreaker
}

// Unwrap returns the guarded store.
func (r *CacheStoreWithCircuitBreaker) Unwrap() CacheStore {
	return r.store
}
