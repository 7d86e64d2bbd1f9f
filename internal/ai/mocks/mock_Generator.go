// Package mocks provides test doubles for the ai package.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	ai "github.com/sells-group/lead-enrich/internal/ai"
)

// MockGenerator is a mock type for the Generator interface.
type MockGenerator struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (_m *MockGenerator) Name() string {
	ret := _m.Called()

	if len(ret) == 0 {
		return "mock"
	}
	return ret.String(0)
}

// Generate provides a mock function with given fields: ctx, req
func (_m *MockGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Generate")
	}

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, ai.Request) string); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.String(0)
	}
	return r0, ret.Error(1)
}

// NewMockGenerator creates a new instance of MockGenerator.
func NewMockGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGenerator {
	mock := &MockGenerator{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
