package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"personapi/internal/async"
	"personapi/internal/model"
)

type MockPersonService struct {
	mock.Mock
}

func (m *MockPersonService) List(ctx context.Context) ([]model.Person, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Person), args.Error(1)
}

func (m *MockPersonService) Get(ctx context.Context, firstName string) (*model.Person, bool, error) {
	args := m.Called(ctx, firstName)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Person), args.Bool(1), args.Error(2)
}

func (m *MockPersonService) Create(ctx context.Context, src async.Source[*model.Person]) (*model.Person, error) {
	args := m.Called(ctx, src)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Person), args.Error(1)
}
