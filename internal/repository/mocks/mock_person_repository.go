package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"personapi/internal/model"
)

type MockPersonRepository struct {
	mock.Mock
}

func (m *MockPersonRepository) Save(ctx context.Context, p *model.Person) (*model.Person, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Person), args.Error(1)
}

func (m *MockPersonRepository) FindByFirstName(ctx context.Context, firstName string) (*model.Person, error) {
	args := m.Called(ctx, firstName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Person), args.Error(1)
}

func (m *MockPersonRepository) List(ctx context.Context) ([]model.Person, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Person), args.Error(1)
}
