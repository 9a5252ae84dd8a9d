package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/schemawatch/schemawatch/internal"
	"github.com/schemawatch/schemawatch/internal/security"
	"github.com/schemawatch/schemawatch/internal/store"
	"github.com/schemawatch/schemawatch/internal/util"
)

type SuiteWriter interface {
	CreateSuite(
		context.Context,
		*int64,
		string, string, string, string, string, string,
	) (*store.Suite, error)
	UpdateSuite(context.Context, int64, *int64, string, string, string, string, string, string) error
	UpdateSuiteSchedule(context.Context, int64, *string, *string) error
	UpdateSuiteScheduleJobID(context.Context, int64, *string) error
	DeleteSuite(context.Context, int64) error
}

type SuiteReader interface {
	ReadSuiteByID(context.Context, int64) (*store.Suite, error)
	ReadSuiteRunData(context.Context, int64) (*store.SuiteRunData, error)
	ListSuites(context.Context) ([]*store.Suite, error)
	ListScheduledSuites(context.Context) ([]*store.Suite, error)
}

type SuiteStore interface {
	SuiteWriter
	SuiteReader
}

type RunWriter interface {
	CreateRun(context.Context, int64, store.RunTrigger) (*store.Run, error)
	UpdateRunStartedOn(context.Context, int64, store.RunStatus, *time.Time) error
	UpdateRunEndedOn(context.Context, int64, store.RunStatus, *string, int64, *time.Time) error
	AppendRunOutput(context.Context, int64, string) error
	DeleteRun(context.Context, int64) error
}

type RunReader interface {
	ReadRunByID(context.Context, int64) (*store.Run, error)
	ListSuiteRuns(context.Context, int64) ([]store.Run, error)
	ListLatestSuiteRuns(context.Context, int64, int64) ([]store.Run, error)
	ListSuiteRunsPaginated(context.Context, int64, int64, int64) ([]store.Run, error)
	CountSuiteRuns(context.Context, int64) (int64, error)
}

type RunStore interface {
	RunWriter
	RunReader
}

type APIKeyStore interface {
	ReadAPIKeyByID(context.Context, int64) (*store.APIKey, error)
	ReadAPIKeyByValue(context.Context, string) (*store.APIKey, error)
	ListAPIKeys(context.Context) ([]*store.APIKey, error)
}

type SuiteService struct {
	suiteStore   SuiteStore
	runStore     RunStore
	apiKeyStore  APIKeyStore
	scheduler    gocron.Scheduler
	aesEncrypter security.Encrypter
	schemas      SchemaProvider

	mu     sync.Mutex
	queues map[int64]*RunQueue
}

func NewSuiteService(
	suiteStore SuiteStore,
	runStore RunStore,
	apiKeyStore APIKeyStore,
	scheduler gocron.Scheduler,
	aesEncrypter security.Encrypter,
	schemas SchemaProvider,
) *SuiteService {
	return &SuiteService{
		suiteStore:   suiteStore,
		runStore:     runStore,
		apiKeyStore:  apiKeyStore,
		scheduler:    scheduler,
		aesEncrypter: aesEncrypter,
		schemas:      schemas,
		queues:       make(map[int64]*RunQueue),
	}
}

func (s *SuiteService) InitializeRunQueues(ctx context.Context) error {
	suites, err := s.ListSuites(ctx)
	if err != nil {
		return err
	}

	ids := make([]int64, len(suites))
	for i, p := range suites {
		ids[i] = p.SuiteID
	}

	s.AddRunQueues(ids, internal.Config.QueueSize)
	s.StartRunQueues()
	return nil
}

// InitializeSchedules re-registers cron jobs for scheduled suites on startup.
// Job IDs are not stable across restarts, so each suite gets a fresh one.
func (s *SuiteService) InitializeSchedules(ctx context.Context) error {
	suites, err := s.ListScheduledSuites(ctx)
	if err != nil {
		return err
	}
	for _, suite := range suites {
		if suite.Schedule == nil {
			continue
		}
		jobID, err := s.ScheduleSuiteRun(suite.SuiteID, *suite.Schedule)
		if err != nil {
			return err
		}
		if err := s.suiteStore.UpdateSuiteScheduleJobID(ctx, suite.SuiteID, jobID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SuiteService) CreateSuite(
	ctx context.Context,
	credentialID *int64,
	name, description, schemaSource, baseURL, caseStyle, manifest string,
) (*store.Suite, error) {
	suite, err := s.suiteStore.CreateSuite(
		ctx,
		credentialID,
		name,
		description,
		schemaSource,
		baseURL,
		caseStyle,
		manifest,
	)
	if err != nil {
		return nil, err
	}
	s.AddRunQueue(suite.SuiteID, internal.Config.QueueSize)
	if err := s.StartRunQueue(suite.SuiteID); err != nil {
		return suite, err
	}
	return suite, nil
}

func (s *SuiteService) GetSuiteByID(
	ctx context.Context,
	suiteID int64,
) (*store.Suite, error) {
	return s.suiteStore.ReadSuiteByID(ctx, suiteID)
}

// GetSuiteRunData reads the suite joined with its credential and decrypts
// the credential secret, so the run queue never sees the stored hash.
func (s *SuiteService) GetSuiteRunData(
	ctx context.Context,
	id int64,
) (*store.SuiteRunData, error) {
	srd, err := s.suiteStore.ReadSuiteRunData(ctx, id)
	if err != nil {
		return nil, err
	}

	if srd.SecretHash != nil {
		secret, err := s.aesEncrypter.DecryptAES(*srd.SecretHash)
		if err != nil {
			return nil, err
		}
		srd.Secret = secret
	}

	return srd, nil
}

func (s *SuiteService) ListSuites(
	ctx context.Context,
) ([]*store.Suite, error) {
	suites, err := s.suiteStore.ListSuites(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return suites, nil
}

func (s *SuiteService) ListScheduledSuites(
	ctx context.Context,
) ([]*store.Suite, error) {
	suites, err := s.suiteStore.ListScheduledSuites(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return suites, nil
}

func (s *SuiteService) UpdateSuite(
	ctx context.Context,
	suiteID int64,
	credentialID *int64,
	name, description, schemaSource, baseURL, caseStyle, manifest string,
) error {
	return s.suiteStore.UpdateSuite(
		ctx,
		suiteID,
		credentialID,
		name,
		description,
		schemaSource,
		baseURL,
		caseStyle,
		manifest,
	)
}

func (s *SuiteService) UpdateSuiteSchedule(
	ctx context.Context,
	id int64,
	schedule *string,
) error {
	suite, err := s.suiteStore.ReadSuiteByID(ctx, id)
	if err != nil {
		return err
	}

	if suite.ScheduleJobID != nil && s.scheduler != nil {
		if err := s.scheduler.RemoveJob(uuid.MustParse(*suite.ScheduleJobID)); err != nil {
			log.Println("unable to remove existing job: ", err)
		}
	}

	if schedule == nil {
		return s.suiteStore.UpdateSuiteSchedule(ctx, suite.SuiteID, nil, nil)
	}

	jobID, err := s.ScheduleSuiteRun(suite.SuiteID, *schedule)
	if err != nil {
		return err
	}
	return s.suiteStore.UpdateSuiteSchedule(ctx, suite.SuiteID, schedule, jobID)
}

func (s *SuiteService) UpdateSuiteScheduleJobID(
	ctx context.Context,
	suiteID int64,
	jobID *string,
) error {
	return s.suiteStore.UpdateSuiteScheduleJobID(ctx, suiteID, jobID)
}

func (s *SuiteService) AppendRunOutput(
	ctx context.Context,
	runID int64,
	out string,
) error {
	return s.runStore.AppendRunOutput(ctx, runID, out)
}

func (s *SuiteService) DeleteSuite(
	ctx context.Context, suiteID int64,
) error {
	err := s.suiteStore.DeleteSuite(ctx, suiteID)
	if err != nil {
		return err
	}
	s.RemoveRunQueue(suiteID)
	return nil
}

func (s *SuiteService) CreateRun(
	ctx context.Context,
	suiteID int64,
	trigger store.RunTrigger,
) (*store.Run, error) {
	r, err := s.runStore.CreateRun(ctx, suiteID, trigger)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SuiteService) GetRunByID(
	ctx context.Context, runID int64,
) (*store.Run, error) {
	r, err := s.runStore.ReadRunByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SuiteService) UpdateRunStartedOn(
	ctx context.Context,
	runID int64,
	status store.RunStatus,
	startedOn *time.Time,
) error {
	return s.runStore.UpdateRunStartedOn(ctx, runID, status, startedOn)
}

func (s *SuiteService) UpdateRunEndedOn(
	ctx context.Context,
	runID int64,
	status store.RunStatus,
	findings *string,
	findingCount int64,
	endedOn *time.Time,
) error {
	return s.runStore.UpdateRunEndedOn(ctx, runID, status, findings, findingCount, endedOn)
}

func (s *SuiteService) DeleteRun(
	ctx context.Context, runID int64,
) error {
	return s.runStore.DeleteRun(ctx, runID)
}

func (s *SuiteService) ListSuiteRuns(
	ctx context.Context,
	suiteID int64,
) ([]store.Run, error) {
	runs, err := s.runStore.ListSuiteRuns(ctx, suiteID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return runs, nil
}

func (s *SuiteService) ListLatestSuiteRuns(
	ctx context.Context,
	suiteID, limit int64,
) ([]store.Run, error) {
	return s.runStore.ListLatestSuiteRuns(ctx, suiteID, limit)
}

func (s *SuiteService) ListSuiteRunsPaginated(
	ctx context.Context,
	suiteID, limit, offset int64,
) ([]store.Run, error) {
	return s.runStore.ListSuiteRunsPaginated(
		ctx, suiteID, limit, offset,
	)
}

func (s *SuiteService) GetSuiteRunCount(
	ctx context.Context, id int64,
) (int64, error) {
	return s.runStore.CountSuiteRuns(ctx, id)
}

func (s *SuiteService) GetAPIKeyByValue(
	ctx context.Context,
	value string,
) (*store.APIKey, error) {
	return s.apiKeyStore.ReadAPIKeyByValue(ctx, value)
}

func (s *SuiteService) GetAPIKeyByID(
	ctx context.Context,
	id int64,
) (*store.APIKey, error) {
	return s.apiKeyStore.ReadAPIKeyByID(ctx, id)
}

func (s *SuiteService) ListAPIKeys(
	ctx context.Context,
) ([]*store.APIKey, error) {
	return s.apiKeyStore.ListAPIKeys(ctx)
}

func (s *SuiteService) ScheduleSuiteRun(
	suiteID int64,
	schedule string,
) (*string, error) {
	if s.scheduler == nil {
		return nil, nil
	}
	job, err := s.scheduler.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(func() {
			if r, err := s.CreateRun(
				context.Background(),
				suiteID,
				store.TriggerSchedule,
			); err == nil {
				if err := s.EnqueueRun(r); err != nil {
					log.Println("queue is full")
					return
				}
			}
		}))
	if err != nil {
		return nil, fmt.Errorf("error scheduling suite job: %+w", err)
	}
	return util.AsPtr(job.ID().String()), nil
}

func (s *SuiteService) AddRunQueues(ids []int64, maxRuns int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.queues[id] = NewRunQueue(s, s.schemas, maxRuns)
	}
}

func (s *SuiteService) StartRunQueues() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queues {
		go s.queues[i].Run()
	}
}

func (s *SuiteService) AddRunQueue(id int64, maxRuns int64) {
	// Adds and starts a new RunQueue
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[id] = NewRunQueue(s, s.schemas, maxRuns)
}

func (s *SuiteService) StartRunQueue(id int64) error {
	rq, ok := s.GetSuiteRunQueue(id)
	if !ok {
		return fmt.Errorf("run queue for suite %d does not exist", id)
	}
	go rq.Run()
	return nil
}

func (s *SuiteService) GetSuiteRunQueue(id int64) (*RunQueue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rq, ok := s.queues[id]
	return rq, ok
}

func (s *SuiteService) RemoveRunQueue(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queues, id)
}

func (s *SuiteService) EnqueueRun(r *store.Run) error {
	rq, ok := s.GetSuiteRunQueue(r.RunSuiteID)
	if !ok {
		return fmt.Errorf("run queue for suite %d does not exist", r.RunSuiteID)
	}

	return rq.Enqueue(r)
}

func (s *SuiteService) ShutdownRunQueue(id int64) {
	rq, ok := s.GetSuiteRunQueue(id)
	if !ok {
		return
	}
	rq.Shutdown()
}

func (s *SuiteService) ShutdownAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var wg sync.WaitGroup
	for _, rq := range s.queues {
		rq := rq
		wg.Add(1)
		go func() {
			defer wg.Done()
			rq.Shutdown()
		}()
	}
	wg.Wait()
}
