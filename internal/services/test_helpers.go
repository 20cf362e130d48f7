package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"schoolpulse/internal/dataset"
	"schoolpulse/pkg/contracts/domain"
)

// MockDatasetSource is a mock for the DatasetSource interface
type MockDatasetSource struct {
	mock.Mock
}

func (m *MockDatasetSource) Table(ctx context.Context) (*domain.Table, error) {
	args := m.Called(ctx)
	table, _ := args.Get(0).(*domain.Table)
	return table, args.Error(1)
}

func (m *MockDatasetSource) Reload(ctx context.Context) (dataset.Snapshot, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(dataset.Snapshot), args.Bool(1), args.Error(2)
}

func (m *MockDatasetSource) Snapshot() dataset.Snapshot {
	return m.Called().Get(0).(dataset.Snapshot)
}

// MockListener is a mock for dataset.Listener
type MockListener struct {
	mock.Mock
}

func (m *MockListener) DatasetReloaded(ctx context.Context, snap dataset.Snapshot) {
	m.Called(ctx, snap)
}

func (m *MockListener) DatasetFailed(ctx context.Context, err error) {
	m.Called(ctx, err)
}

// MockClientCounter is a mock for ClientCounter
type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	return m.Called().Int(0)
}
