// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"
)

type MockCoverFetcher struct {
	mock.Mock
}

func (m *MockCoverFetcher) Fetch(ctx context.Context, urls []string, size int) []image.Image {
	args := m.Called(ctx, urls, size)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]image.Image)
}
