package dashboard

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/emilianohg/aimetrics/internal/query"
)

type MockMetricsSource struct {
	mock.Mock
}

func (m *MockMetricsSource) Metrics(ctx context.Context, opts query.Options) (*query.Metrics, error) {
	args := m.Called(ctx, opts)
	metrics, _ := args.Get(0).(*query.Metrics)
	return metrics, args.Error(1)
}

func (m *MockMetricsSource) Report(ctx context.Context, timelineDays int) (*query.Report, error) {
	args := m.Called(ctx, timelineDays)
	report, _ := args.Get(0).(*query.Report)
	return report, args.Error(1)
}
