package resolver

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockResolver struct {
	mock.Mock
}

var _ Resolver = &MockResolver{}

func (m *MockResolver) Resolve(ctx context.Context, gap Gap) (Decision, error) {
	args := m.Called(ctx, gap)
	return args.Get(0).(Decision), args.Error(1)
}
