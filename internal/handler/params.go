package handler

import "github.com/schemawatch/schemawatch/internal/store"

type CredentialParams struct {
	CredentialID int64  `json:"credential_id" param:"credential_id"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Username     string `json:"username"`
	Description  string `json:"description"`
	Secret       string `json:"secret"`
}

type SuiteParams struct {
	SuiteID           int64   `json:"suite_id"            param:"suite_id"`
	SuiteCredentialID *int64  `json:"suite_credential_id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	SchemaSource      string  `json:"schema_source"`
	BaseURL           string  `json:"base_url"`
	CaseStyle         string  `json:"case_style"`
	Manifest          string  `json:"manifest"`
	Schedule          *string `json:"schedule"`
}

type RunParams struct {
	SuiteID int64 `param:"suite_id"`
	RunID   int64 `param:"run_id"`
}

type ListRunsParams struct {
	SuiteID int64 `param:"suite_id"`
	Page    int64 `                 query:"page"`
}

type PatchUserParams struct {
	UserID int64      `param:"user_id"`
	RoleID store.Role `                json:"role_id"`
}

type PatchUserPasswordParams struct {
	UserID          int64  `param:"user_id" json:"user_id"`
	OldPassword     string `                json:"old_password"`
	Password        string `                json:"password"`
	PasswordConfirm string `                json:"password_confirm"`
}

type UserParams struct {
	UserID          int64      `param:"user_id"`
	UserRoleID      store.Role `                json:"user_role_id"`
	Username        string     `                json:"username"`
	Password        string     `                json:"password"`
	PasswordConfirm string     `                json:"password_confirm"`
}

type APIKeyParams struct {
	ID int64 `param:"id"`
}

type ConfigParams struct {
	SessionExpiresHours int64 `json:"session_expires_hours"`
	QueueSize           int64 `json:"queue_size"`
	ProbeTimeoutSeconds int64 `json:"probe_timeout_seconds"`
	SchemaCacheMinutes  int64 `json:"schema_cache_minutes"`
}
