// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"
	"time"

	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

type MockCacheStore struct {
	mock.Mock
}

func (m *MockCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockCacheStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, data, ttl)
	return args.Error(0)
}

func (m *MockCacheStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheStore) Entries(ctx context.Context) ([]model.CacheEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CacheEntry), args.Error(1)
}

func (m *MockCacheStore) Cleanup(ctx context.Context, maxSize int64, maxEntries int) (model.CleanupReport, error) {
	args := m.Called(ctx, maxSize, maxEntries)
	return args.Get(0).(model.CleanupReport), args.Error(1)
}
