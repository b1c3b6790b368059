// Package mocks provides test doubles for the mem0 client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	mem0 "github.com/sells-group/toolscout/pkg/mem0"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Add provides a mock function with given fields: ctx, req
func (_m *MockClient) Add(ctx context.Context, req mem0.AddRequest) error {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Add")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, mem0.AddRequest) error); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Search provides a mock function with given fields: ctx, req
func (_m *MockClient) Search(ctx context.Context, req mem0.SearchRequest) ([]mem0.Item, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 []mem0.Item
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, mem0.SearchRequest) ([]mem0.Item, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, mem0.SearchRequest) []mem0.Item); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]mem0.Item)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, mem0.SearchRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
