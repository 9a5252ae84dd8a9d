package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// suiteColumns is every suites column the Suite struct carries. created_on
// is not surfaced anywhere in the product, so it is never selected.
const suiteColumns = `suite_id, suite_credential_id, name, description, schema_source,
	base_url, case_style, manifest, schedule, schedule_job_id`

type SuiteSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewSuiteSQLiteStore(rdb, rwdb *sql.DB) *SuiteSQLiteStore {
	return &SuiteSQLiteStore{rdb, rwdb}
}

func (store *SuiteSQLiteStore) CreateSuite(
	ctx context.Context,
	credentialID *int64,
	name, description, schemaSource, baseURL, caseStyle, manifest string,
) (*Suite, error) {
	s := &Suite{
		SuiteCredentialID: credentialID,
		Name:              name,
		Description:       description,
		SchemaSource:      schemaSource,
		BaseURL:           baseURL,
		CaseStyle:         caseStyle,
		Manifest:          manifest,
	}
	query := `insert into suites (
		suite_credential_id,
		name,
		description,
		schema_source,
		base_url,
		case_style,
		manifest
	)
	values ($1, $2, $3, $4, $5, $6, $7)
	returning suite_id`
	err := sqlscan.Get(
		ctx, store.rwdb, s, query,
		s.SuiteCredentialID,
		s.Name,
		s.Description,
		s.SchemaSource,
		s.BaseURL,
		s.CaseStyle,
		s.Manifest,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (store *SuiteSQLiteStore) ReadSuiteByID(ctx context.Context, id int64) (*Suite, error) {
	s := &Suite{SuiteID: id}
	query := `select ` + suiteColumns + ` from suites where suite_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, s, query, s.SuiteID); err != nil {
		return nil, err
	}
	return s, nil
}

func (store *SuiteSQLiteStore) ReadSuiteRunData(
	ctx context.Context,
	id int64,
) (*SuiteRunData, error) {
	srd := new(SuiteRunData)
	query := `select
		s.suite_id,
		s.suite_credential_id as credential_id,
		c.kind as credential_kind,
		c.username,
		c.secret_hash,
		s.schema_source,
		s.base_url,
		s.case_style,
		s.manifest
	from suites s
	left join credentials c
	on s.suite_credential_id = c.credential_id
	where s.suite_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, srd, query, id); err != nil {
		return nil, err
	}
	return srd, nil
}

func (store *SuiteSQLiteStore) UpdateSuite(
	ctx context.Context,
	suiteID int64,
	credentialID *int64,
	name, description, schemaSource, baseURL, caseStyle, manifest string,
) error {
	query := `update suites
	set suite_credential_id = $1,
		name = $2,
		description = $3,
		schema_source = $4,
		base_url = $5,
		case_style = $6,
		manifest = $7
	where suite_id = $8`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		credentialID,
		name,
		description,
		schemaSource,
		baseURL,
		caseStyle,
		manifest,
		suiteID,
	)
	return err
}

func (store *SuiteSQLiteStore) UpdateSuiteSchedule(
	ctx context.Context,
	suiteID int64,
	schedule, jobID *string,
) error {
	query := `update suites
	set schedule = $1,
		schedule_job_id = $2
	where suite_id = $3`
	_, err := store.rwdb.ExecContext(ctx, query, schedule, jobID, suiteID)
	return err
}

func (store *SuiteSQLiteStore) UpdateSuiteScheduleJobID(
	ctx context.Context,
	suiteID int64,
	jobID *string,
) error {
	query := `update suites
	set schedule_job_id = $1
	where suite_id = $2`
	_, err := store.rwdb.ExecContext(ctx, query, jobID, suiteID)
	return err
}

func (store *SuiteSQLiteStore) DeleteSuite(ctx context.Context, suiteID int64) error {
	query := "delete from suites where suite_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, suiteID)
	return err
}

func (store *SuiteSQLiteStore) ListSuites(ctx context.Context) ([]*Suite, error) {
	suites := make([]*Suite, 0)
	query := `select ` + suiteColumns + ` from suites order by name`
	err := sqlscan.Select(ctx, store.rdb, &suites, query)
	return suites, err
}

func (store *SuiteSQLiteStore) ListScheduledSuites(ctx context.Context) ([]*Suite, error) {
	suites := make([]*Suite, 0)
	query := `select ` + suiteColumns + ` from suites where schedule is not null`
	err := sqlscan.Select(ctx, store.rdb, &suites, query)
	return suites, err
}
