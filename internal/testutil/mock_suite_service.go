package testutil

import (
	"context"
	"time"

	"github.com/schemawatch/schemawatch/internal/service"
	"github.com/schemawatch/schemawatch/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockSuiteService struct {
	mock.Mock
}

func (m *MockSuiteService) CreateSuite(
	ctx context.Context,
	credentialID *int64,
	name, description, schemaSource, baseURL, caseStyle, manifest string,
) (*store.Suite, error) {
	args := m.Called(ctx, credentialID, name, description, schemaSource, baseURL, caseStyle, manifest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Suite), args.Error(1)
}

func (m *MockSuiteService) UpdateSuite(
	ctx context.Context,
	suiteID int64,
	credentialID *int64,
	name, description, schemaSource, baseURL, caseStyle, manifest string,
) error {
	args := m.Called(
		ctx, suiteID, credentialID, name, description, schemaSource, baseURL, caseStyle, manifest)
	return args.Error(0)
}

func (m *MockSuiteService) UpdateSuiteSchedule(
	ctx context.Context,
	id int64,
	schedule *string,
) error {
	args := m.Called(ctx, id, schedule)
	return args.Error(0)
}

func (m *MockSuiteService) UpdateSuiteScheduleJobID(
	ctx context.Context,
	id int64,
	jobID *string,
) error {
	args := m.Called(ctx, id, jobID)
	return args.Error(0)
}

func (m *MockSuiteService) DeleteSuite(ctx context.Context, suiteID int64) error {
	args := m.Called(ctx, suiteID)
	return args.Error(0)
}

func (m *MockSuiteService) GetSuiteByID(ctx context.Context, suiteID int64) (*store.Suite, error) {
	args := m.Called(ctx, suiteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Suite), args.Error(1)
}

func (m *MockSuiteService) GetSuiteRunData(
	ctx context.Context,
	id int64,
) (*store.SuiteRunData, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.SuiteRunData), args.Error(1)
}

func (m *MockSuiteService) ListSuites(ctx context.Context) ([]*store.Suite, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Suite), args.Error(1)
}

func (m *MockSuiteService) ListScheduledSuites(ctx context.Context) ([]*store.Suite, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Suite), args.Error(1)
}

func (m *MockSuiteService) CreateRun(
	ctx context.Context,
	suiteID int64,
	trigger store.RunTrigger,
) (*store.Run, error) {
	args := m.Called(ctx, suiteID, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *MockSuiteService) UpdateRunStartedOn(
	ctx context.Context,
	runID int64,
	status store.RunStatus,
	startedOn *time.Time,
) error {
	args := m.Called(ctx, runID, status, startedOn)
	return args.Error(0)
}

func (m *MockSuiteService) UpdateRunEndedOn(
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

func (m *MockSuiteService) AppendRunOutput(ctx context.Context, runID int64, output string) error {
	args := m.Called(ctx, runID, output)
	return args.Error(0)
}

func (m *MockSuiteService) DeleteRun(ctx context.Context, runID int64) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func (m *MockSuiteService) GetRunByID(ctx context.Context, runID int64) (*store.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *MockSuiteService) ListSuiteRuns(ctx context.Context, suiteID int64) ([]store.Run, error) {
	args := m.Called(ctx, suiteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *MockSuiteService) ListLatestSuiteRuns(
	ctx context.Context,
	id, limit int64,
) ([]store.Run, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *MockSuiteService) ListSuiteRunsPaginated(
	ctx context.Context,
	id, limit, offset int64,
) ([]store.Run, error) {
	args := m.Called(ctx, id, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *MockSuiteService) GetSuiteRunCount(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSuiteService) InitializeRunQueues(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSuiteService) AddRunQueues(ids []int64, queueSize int64) {
	m.Called(ids, queueSize)
}

func (m *MockSuiteService) AddRunQueue(id, queueSize int64) {
	m.Called(id, queueSize)
}

func (m *MockSuiteService) GetSuiteRunQueue(id int64) (*service.RunQueue, bool) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*service.RunQueue), args.Bool(1)
}

func (m *MockSuiteService) RemoveRunQueue(id int64) {
	m.Called(id)
}

func (m *MockSuiteService) EnqueueRun(run *store.Run) error {
	args := m.Called(run)
	return args.Error(0)
}

func (m *MockSuiteService) ShutdownRunQueue(id int64) {
	m.Called(id)
}

func (m *MockSuiteService) ShutdownAll() {
	m.Called()
}
