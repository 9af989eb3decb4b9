// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, params model.PatchworkParams) (model.PatchworkResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.PatchworkResult), args.Error(1)
}
