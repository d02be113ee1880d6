// Package mocks provides test doubles for the gemini client.
package mocks

import (
	context "context"

	gemini "github.com/sells-group/outreach-cli/pkg/gemini"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// GenerateJSON provides a mock function with given fields: ctx, req
func (_m *MockClient) GenerateJSON(ctx context.Context, req gemini.Request) (*gemini.Response, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for GenerateJSON")
	}

	var r0 *gemini.Response
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, gemini.Request) (*gemini.Response, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, gemini.Request) *gemini.Response); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*gemini.Response)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, gemini.Request) error); ok {
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
