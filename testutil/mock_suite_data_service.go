package testutil

import (
	"context"
	"time"

	"github.com/schemawatch/schemawatch/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockSuiteDataService covers the run data and run bookkeeping methods a run
// queue needs from the suite service.
type MockSuiteDataService struct {
	mock.Mock
}

func (m *MockSuiteDataService) GetSuiteRunData(
	ctx context.Context,
	id int64,
) (*store.SuiteRunData, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.SuiteRunData), args.Error(1)
}

func (m *MockSuiteDataService) GetRunByID(ctx context.Context, runID int64) (*store.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *MockSuiteDataService) UpdateRunStartedOn(
	ctx context.Context,
	runID int64,
	status store.RunStatus,
	startedOn *time.Time,
) error {
	args := m.Called(ctx, runID, status, startedOn)
	return args.Error(0)
}

func (m *MockSuiteDataService) UpdateRunEndedOn(
	ctx context.Context,
	runID int64,
	status store.RunStatus,
	findings *string,
	findingCount int64,
	endedOn *time.Time,
) error {
	args := m.Called(ctx, runID, status, findings, findingCount, endedOn)
	return args.Error(0)
}

func (m *MockSuiteDataService) AppendRunOutput(
	ctx context.Context,
	runID int64,
	output string,
) error {
	args := m.Called(ctx, runID, output)
	return args.Error(0)
}
