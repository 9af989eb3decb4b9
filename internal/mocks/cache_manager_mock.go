// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

type MockCacheManager struct {
	mock.Mock
}

func (m *MockCacheManager) GenerateKey(params model.PatchworkParams) string {
	args := m.Called(params)
	return args.String(0)
}

func (m *MockCacheManager) Get(ctx context.Context, key string) ([]byte, bool) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]byte), args.Bool(1)
}

func (m *MockCacheManager) Set(ctx context.Context, key string, data []byte, period string) error {
	args := m.Called(ctx, key, data, period)
	return args.Error(0)
}

func (m *MockCacheManager) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheManager) Cleanup(ctx context.Context) (model.CleanupReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.CleanupReport), args.Error(1)
}

func (m *MockCacheManager) Stats(ctx context.Context) (model.CacheStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.CacheStats), args.Error(1)
}
