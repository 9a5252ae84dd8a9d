package store

import (
	"context"
	"time"
)

type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusCancelled RunStatus = "cancelled"
	StatusFailed    RunStatus = "failed"
	StatusPassed    RunStatus = "passed"
)

type RunTrigger string

const (
	TriggerManual   RunTrigger = "manual"
	TriggerWebhook  RunTrigger = "webhook"
	TriggerSchedule RunTrigger = "schedule"
)

type Run struct {
	RunID       int64      `json:"run_id" param:"run_id"`
	RunSuiteID  int64      `json:"run_suite_id"`
	TriggeredBy RunTrigger `json:"triggered_by"`
	Status      RunStatus  `json:"status"`
	Output      *string    `json:"output"`
	// Findings is the conformance mismatch list encoded as JSON
	Findings     *string    `json:"findings"`
	FindingCount int64      `json:"finding_count"`
	CreatedOn    time.Time  `json:"created_on"`
	StartedOn    *time.Time `json:"started_on"`
	EndedOn      *time.Time `json:"ended_on"`

	SuiteName string `json:"suite_name,omitempty"`
}

type RunStore interface {
	CreateRun(context.Context, int64, RunTrigger) (*Run, error)
	ReadRunByID(context.Context, int64) (*Run, error)
	UpdateRunStartedOn(context.Context, int64, RunStatus, *time.Time) error
	UpdateRunEndedOn(context.Context, int64, RunStatus, *string, int64, *time.Time) error
	AppendRunOutput(context.Context, int64, string) error
	DeleteRun(context.Context, int64) error
	ListSuiteRuns(context.Context, int64) ([]Run, error)
	ListLatestSuiteRuns(context.Context, int64, int64) ([]Run, error)
	ListSuiteRunsPaginated(context.Context, int64, int64, int64) ([]Run, error)
	CountSuiteRuns(context.Context, int64) (int64, error)
}
