package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/schemawatch/schemawatch/internal"
)

type RunSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewRunSQLiteStore(rdb, rwdb *sql.DB) *RunSQLiteStore {
	return &RunSQLiteStore{rdb, rwdb}
}

func (store *RunSQLiteStore) CreateRun(
	ctx context.Context,
	suiteID int64,
	trigger RunTrigger,
) (*Run, error) {
	r := &Run{
		RunSuiteID:  suiteID,
		TriggeredBy: trigger,
		Status:      StatusQueued,
	}
	query := `insert into runs (
		run_suite_id,
		triggered_by,
		status
	)
	values ($1, $2, $3)
	returning run_id, created_on`
	if err := sqlscan.Get(ctx, store.rwdb, r, query, r.RunSuiteID, r.TriggeredBy, r.Status); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) ReadRunByID(ctx context.Context, id int64) (*Run, error) {
	r := &Run{RunID: id}
	query := "select * from runs where run_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, r, query, r.RunID); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) UpdateRunStartedOn(
	ctx context.Context,
	id int64,
	status RunStatus,
	startedOn *time.Time,
) error {
	query := `update runs
	set status = $1,
		started_on = $2
	where run_id = $3`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		startedOn.Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

func (store *RunSQLiteStore) UpdateRunEndedOn(
	ctx context.Context,
	id int64,
	status RunStatus,
	findings *string,
	findingCount int64,
	endedOn *time.Time,
) error {
	query := `update runs
	set status = $1,
		findings = $2,
		finding_count = $3,
		ended_on = $4
	where run_id = $5`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		findings,
		findingCount,
		endedOn.Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

func (store *RunSQLiteStore) AppendRunOutput(ctx context.Context, id int64, out string) error {
	tx, err := store.rwdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	r := &Run{RunID: id}
	readQuery := `select * from runs where run_id = $1`
	err = sqlscan.Get(ctx, tx, r, readQuery, r.RunID)
	if err != nil {
		return err
	}

	var existingOutput string
	if r.Output != nil {
		existingOutput = *r.Output
	}
	updateQuery := `update runs
	set output = $1
	where run_id = $2`
	_, err = tx.ExecContext(ctx, updateQuery, existingOutput+out, r.RunID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (store *RunSQLiteStore) DeleteRun(ctx context.Context, id int64) error {
	query := "delete from runs where run_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *RunSQLiteStore) ListSuiteRuns(
	ctx context.Context,
	suiteID int64,
) ([]Run, error) {
	query := `select * from runs
	where run_suite_id = $1`
	runs := make([]Run, 0)
	err := sqlscan.Select(ctx, store.rdb, &runs, query, suiteID)
	return runs, err
}

func (store *RunSQLiteStore) ListSuiteRunsPaginated(
	ctx context.Context,
	suiteID, limit, offset int64,
) ([]Run, error) {
	query := `select
		r.run_id,
		r.run_suite_id,
		r.triggered_by,
		r.status,
		r.finding_count,
		r.created_on,
		r.started_on,
		r.ended_on,
		s.name as suite_name
	from runs r
	join suites s
	on r.run_suite_id = s.suite_id
	where run_suite_id = $1
	order by created_on desc limit $2 offset $3`
	runs := make([]Run, 0)
	err := sqlscan.Select(ctx, store.rdb, &runs, query, suiteID, limit, offset)
	return runs, err
}

func (store *RunSQLiteStore) ListLatestSuiteRuns(
	ctx context.Context,
	suiteID, limit int64,
) ([]Run, error) {
	query := `select * from runs
	where run_suite_id = $1
	order by created_on desc limit $2`
	runs := make([]Run, 0)
	err := sqlscan.Select(ctx, store.rdb, &runs, query, suiteID, limit)
	return runs, err
}

func (store *RunSQLiteStore) CountSuiteRuns(
	ctx context.Context,
	suiteID int64,
) (int64, error) {
	var count int64
	query := `select count(*) from runs where run_suite_id = $1`
	err := sqlscan.Get(ctx, store.rdb, &count, query, suiteID)
	return count, err
}
