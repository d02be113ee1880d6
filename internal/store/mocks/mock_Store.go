// Package mocks provides test doubles for the lead store.
package mocks

import (
	"context"

	model "github.com/sells-group/outreach-cli/internal/model"
	store "github.com/sells-group/outreach-cli/internal/store"
	mock "github.com/stretchr/testify/mock"
)

// MockStore is a mock type for the Store interface.
type MockStore struct {
	mock.Mock
}

// InsertLead provides a mock function with given fields: ctx, lead
func (_m *MockStore) InsertLead(ctx context.Context, lead *model.Lead) error {
	ret := _m.Called(ctx, lead)

	if len(ret) == 0 {
		panic("no return value specified for InsertLead")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *model.Lead) error); ok {
		r0 = rf(ctx, lead)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// GetLead provides a mock function with given fields: ctx, id
func (_m *MockStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for GetLead")
	}

	var r0 *model.Lead
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*model.Lead, error)); ok {
		return rf(ctx, id)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *model.Lead); ok {
		r0 = rf(ctx, id)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.Lead)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, id)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ListLeads provides a mock function with given fields: ctx, filter
func (_m *MockStore) ListLeads(ctx context.Context, filter store.LeadFilter) ([]model.Lead, error) {
	ret := _m.Called(ctx, filter)

	if len(ret) == 0 {
		panic("no return value specified for ListLeads")
	}

	var r0 []model.Lead
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, store.LeadFilter) ([]model.Lead, error)); ok {
		return rf(ctx, filter)
	}
	if rf, ok := ret.Get(0).(func(context.Context, store.LeadFilter) []model.Lead); ok {
		r0 = rf(ctx, filter)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.Lead)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, store.LeadFilter) error); ok {
		r1 = rf(ctx, filter)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CountByStatus provides a mock function with given fields: ctx
func (_m *MockStore) CountByStatus(ctx context.Context) (map[model.LeadStatus]int, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for CountByStatus")
	}

	var r0 map[model.LeadStatus]int
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (map[model.LeadStatus]int, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) map[model.LeadStatus]int); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(map[model.LeadStatus]int)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ApplyTransitions provides a mock function with given fields: ctx, transitions
func (_m *MockStore) ApplyTransitions(ctx context.Context, transitions []model.Transition) (int, error) {
	ret := _m.Called(ctx, transitions)

	if len(ret) == 0 {
		panic("no return value specified for ApplyTransitions")
	}

	var r0 int
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []model.Transition) (int, error)); ok {
		return rf(ctx, transitions)
	}
	if rf, ok := ret.Get(0).(func(context.Context, []model.Transition) int); ok {
		r0 = rf(ctx, transitions)
	} else {
		r0 = ret.Get(0).(int)
	}

	if rf, ok := ret.Get(1).(func(context.Context, []model.Transition) error); ok {
		r1 = rf(ctx, transitions)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// RequeueFailed provides a mock function with given fields: ctx, ids
func (_m *MockStore) RequeueFailed(ctx context.Context, ids []string) (int, error) {
	ret := _m.Called(ctx, ids)

	if len(ret) == 0 {
		panic("no return value specified for RequeueFailed")
	}

	var r0 int
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []string) (int, error)); ok {
		return rf(ctx, ids)
	}
	if rf, ok := ret.Get(0).(func(context.Context, []string) int); ok {
		r0 = rf(ctx, ids)
	} else {
		r0 = ret.Get(0).(int)
	}

	if rf, ok := ret.Get(1).(func(context.Context, []string) error); ok {
		r1 = rf(ctx, ids)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ListDeadLetters provides a mock function with given fields: ctx, limit
func (_m *MockStore) ListDeadLetters(ctx context.Context, limit int) ([]model.DeadLetter, error) {
	ret := _m.Called(ctx, limit)

	if len(ret) == 0 {
		panic("no return value specified for ListDeadLetters")
	}

	var r0 []model.DeadLetter
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, int) ([]model.DeadLetter, error)); ok {
		return rf(ctx, limit)
	}
	if rf, ok := ret.Get(0).(func(context.Context, int) []model.DeadLetter); ok {
		r0 = rf(ctx, limit)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.DeadLetter)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, int) error); ok {
		r1 = rf(ctx, limit)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Migrate provides a mock function with given fields: ctx
func (_m *MockStore) Migrate(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Migrate")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context) error); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Close provides a mock function with given fields:
func (_m *MockStore) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockStore creates a new instance of MockStore.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	mock := &MockStore{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
