// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/patchwork-service/internal/provider"
	"github.com/stretchr/testify/mock"
)

type MockCoverResolver struct {
	mock.Mock
}

func (m *MockCoverResolver) Exists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockCoverResolver) FetchTop(ctx context.Context, username, period string, limit int) ([]provider.Item, error) {
	args := m.Called(ctx, username, period, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Item), args.Error(1)
}

func (m *MockCoverResolver) CoverURL(ctx context.Context, item provider.Item) (string, bool) {
	args := m.Called(ctx, item)
	return args.String(0), args.Bool(1)
}
