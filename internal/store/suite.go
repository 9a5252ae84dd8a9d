package store

import (
	"context"
)

// Suite is a registered API contract: where its schema lives, where the live
// API answers, and the manifest of endpoints to probe.
type Suite struct {
	SuiteID           int64  `json:"suite_id" param:"suite_id"`
	SuiteCredentialID *int64 `json:"suite_credential_id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	// Schema document source: http(s)://, file://, or sftp:// URL
	SchemaSource string `json:"schema_source"`
	// Base URL the manifest target paths are resolved against
	BaseURL string `json:"base_url"`
	// Key-casing convention asserted on response and schema keys
	CaseStyle string `json:"case_style"`
	// Manifest YAML listing the targets to probe
	Manifest string `json:"manifest"`
	// Run schedule in cron syntax
	Schedule *string `json:"schedule"`
	// Scheduled job ID
	ScheduleJobID *string `json:"schedule_job_id"`
}

// SuiteRunData is everything a run needs to execute, joined in one read.
type SuiteRunData struct {
	SuiteID        int64
	CredentialID   *int64
	CredentialKind *CredentialKind
	Username       *string
	SecretHash     *string
	SchemaSource   string
	BaseURL        string
	CaseStyle      string
	Manifest       string

	// Secret is the decrypted credential secret
	Secret []byte `db:"-"`
}

type SuiteStore interface {
	CreateSuite(
		context.Context,
		*int64,
		string, string, string, string, string, string,
	) (*Suite, error)
	ReadSuiteByID(context.Context, int64) (*Suite, error)
	ReadSuiteRunData(context.Context, int64) (*SuiteRunData, error)
	UpdateSuite(context.Context, int64, *int64, string, string, string, string, string, string) error
	UpdateSuiteSchedule(context.Context, int64, *string, *string) error
	UpdateSuiteScheduleJobID(context.Context, int64, *string) error
	DeleteSuite(context.Context, int64) error
	ListSuites(context.Context) ([]*Suite, error)
	ListScheduledSuites(context.Context) ([]*Suite, error)
}
