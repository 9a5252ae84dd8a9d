package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/schemawatch/schemawatch/internal"
	"github.com/schemawatch/schemawatch/internal/service"
	"github.com/schemawatch/schemawatch/internal/store"
)

const maxRunsPerPage int64 = 10

type SuiteWriter interface {
	CreateSuite(
		ctx context.Context,
		credentialID *int64,
		name, description, schemaSource, baseURL, caseStyle, manifest string,
	) (*store.Suite, error)
	UpdateSuite(
		ctx context.Context,
		suiteID int64,
		credentialID *int64,
		name, description, schemaSource, baseURL, caseStyle, manifest string,
	) error
	UpdateSuiteSchedule(ctx context.Context, id int64, schedule *string) error
	UpdateSuiteScheduleJobID(ctx context.Context, id int64, jobID *string) error
	DeleteSuite(ctx context.Context, suiteID int64) error
}

type SuiteReader interface {
	GetSuiteByID(ctx context.Context, suiteID int64) (*store.Suite, error)
	GetSuiteRunData(ctx context.Context, id int64) (*store.SuiteRunData, error)
	ListSuites(ctx context.Context) ([]*store.Suite, error)
	ListScheduledSuites(ctx context.Context) ([]*store.Suite, error)
}

type SuiteRunWriter interface {
	CreateRun(ctx context.Context, suiteID int64, trigger store.RunTrigger) (*store.Run, error)
	UpdateRunStartedOn(
		ctx context.Context,
		runID int64,
		status store.RunStatus,
		startedOn *time.Time,
	) error
	UpdateRunEndedOn(
		ctx context.Context,
		runID int64,
		status store.RunStatus,
		findings *string,
		findingCount int64,
		endedOn *time.Time,
	) error
	AppendRunOutput(context.Context, int64, string) error
	DeleteRun(ctx context.Context, runID int64) error
}

type SuiteRunReader interface {
	GetRunByID(ctx context.Context, runID int64) (*store.Run, error)
	ListSuiteRuns(ctx context.Context, suiteID int64) ([]store.Run, error)
	ListLatestSuiteRuns(ctx context.Context, id, limit int64) ([]store.Run, error)
	ListSuiteRunsPaginated(ctx context.Context, id, limit, offset int64) ([]store.Run, error)
	GetSuiteRunCount(ctx context.Context, id int64) (int64, error)
}

type RunQueueServicer interface {
	InitializeRunQueues(ctx context.Context) error
	AddRunQueues(ids []int64, queueSize int64)
	AddRunQueue(id, queueSize int64)
	GetSuiteRunQueue(id int64) (*service.RunQueue, bool)
	RemoveRunQueue(id int64)
	EnqueueRun(run *store.Run) error
	ShutdownRunQueue(id int64)
	ShutdownAll()
}

type SuiteServicer interface {
	SuiteWriter
	SuiteReader
	SuiteRunWriter
	SuiteRunReader
	RunQueueServicer
}

func SetupSuiteRoutes(
	g *echo.Group,
	suiteService SuiteServicer,
	apiKeyService APIKeyServicer,
) {
	h := NewSuiteHandler(suiteService, apiKeyService)
	g.POST("/api/suites/:suite_id/webhook-trigger", h.PostRunWebhookTrigger)

	suitesGroup := g.Group("/api/suites", IsAuthenticated)
	suitesGroup.GET("", h.GetSuites)
	suitesGroup.POST("", h.PostSuite, RoleMiddleware(store.Admin))
	suitesGroup.GET("/:suite_id", h.GetSuite)
	suitesGroup.PATCH("/:suite_id", h.PatchSuite, RoleMiddleware(store.Admin))
	suitesGroup.DELETE("/:suite_id", h.DeleteSuite, RoleMiddleware(store.Admin))
	suitesGroup.PATCH("/:suite_id/schedule", h.PatchSuiteSchedule, RoleMiddleware(store.Admin))
	suitesGroup.GET("/:suite_id/latest-runs", h.GetLatestSuiteRuns)
	suitesGroup.GET("/:suite_id/runs", h.GetSuiteRuns)
	suitesGroup.POST("/:suite_id/runs", h.PostSuiteRun)
	suitesGroup.GET("/:suite_id/runs/:run_id", h.GetSuiteRun)
	suitesGroup.DELETE("/:suite_id/runs/:run_id", h.DeleteSuiteRun, RoleMiddleware(store.Admin))
	suitesGroup.GET("/:suite_id/runs/:run_id/output", h.GetRunOutput)
	suitesGroup.GET("/:suite_id/runs/:run_id/status", h.GetRunStatus)
	suitesGroup.POST("/:suite_id/runs/:run_id/cancel", h.PostCancelRun)
}

type SuiteHandler struct {
	suiteService  SuiteServicer
	apiKeyService APIKeyServicer
}

func NewSuiteHandler(
	suiteService SuiteServicer,
	apiKeyService APIKeyServicer,
) *SuiteHandler {
	return &SuiteHandler{
		suiteService:  suiteService,
		apiKeyService: apiKeyService,
	}
}

func (h *SuiteHandler) GetSuites(c echo.Context) error {
	suites, err := h.suiteService.ListSuites(c.Request().Context())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return newError(err, http.StatusInternalServerError, "unable to list suites")
	}
	return c.JSON(http.StatusOK, suites)
}

func (h *SuiteHandler) PostSuite(c echo.Context) error {
	sp := new(SuiteParams)
	if err := c.Bind(sp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid suite data")
	}

	if sp.Name == "" || sp.SchemaSource == "" || sp.BaseURL == "" || sp.Manifest == "" {
		return newError(nil,
			http.StatusBadRequest,
			"name, schema_source, base_url and manifest are required",
		)
	}

	if _, err := service.ParseManifest([]byte(sp.Manifest)); err != nil {
		return newError(err, http.StatusBadRequest, "invalid manifest")
	}

	s, err := h.suiteService.CreateSuite(
		c.Request().Context(),
		sp.SuiteCredentialID,
		sp.Name,
		sp.Description,
		sp.SchemaSource,
		sp.BaseURL,
		sp.CaseStyle,
		sp.Manifest,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return newError(err,
				http.StatusConflict,
				fmt.Sprintf("a suite with the name %s already exists", sp.Name),
			)
		}
		return newError(err, http.StatusInternalServerError, "unable to create suite")
	}

	return c.JSON(http.StatusCreated, s)
}

func (h *SuiteHandler) GetSuite(c echo.Context) error {
	sp := new(SuiteParams)
	if err := c.Bind(sp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid suite data")
	}

	s, err := h.suiteService.GetSuiteByID(c.Request().Context(), sp.SuiteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "suite not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read suite")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SuiteHandler) PatchSuite(c echo.Context) error {
	sp := new(SuiteParams)
	if err := c.Bind(sp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid suite data")
	}

	if sp.Manifest != "" {
		if _, err := service.ParseManifest([]byte(sp.Manifest)); err != nil {
			return newError(err, http.StatusBadRequest, "invalid manifest")
		}
	}

	err := h.suiteService.UpdateSuite(
		c.Request().Context(),
		sp.SuiteID,
		sp.SuiteCredentialID,
		sp.Name,
		sp.Description,
		sp.SchemaSource,
		sp.BaseURL,
		sp.CaseStyle,
		sp.Manifest,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "suite not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to update suite")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *SuiteHandler) PatchSuiteSchedule(c echo.Context) error {
	sp := new(SuiteParams)
	if err := c.Bind(sp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid suite data")
	}

	if err := h.suiteService.UpdateSuiteSchedule(
		c.Request().Context(), sp.SuiteID, sp.Schedule,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusBadRequest, "invalid suite id")
		}
		return newError(err, http.StatusInternalServerError, "unable to update suite schedule")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *SuiteHandler) DeleteSuite(c echo.Context) error {
	sp := new(SuiteParams)
	if err := c.Bind(sp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid suite data")
	}

	if sp.SuiteID == 0 {
		return newError(errors.New("suite id was zero"), http.StatusBadRequest, "invalid suite id")
	}

	s, err := h.suiteService.GetSuiteByID(c.Request().Context(), sp.SuiteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "suite not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to delete suite")
	}

	if err := h.suiteService.DeleteSuite(c.Request().Context(), s.SuiteID); err != nil {
		return newError(err, http.StatusInternalServerError, "unable to delete suite")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *SuiteHandler) PostSuiteRun(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid suite data")
	}

	s, err := h.suiteService.GetSuiteByID(c.Request().Context(), rp.SuiteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "suite not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read suite data")
	}

	r, err := h.suiteService.CreateRun(c.Request().Context(), s.SuiteID, store.TriggerManual)
	if err != nil {
		return newError(err, http.StatusInternalServerError, "unable to create suite run")
	}

	if err := h.suiteService.EnqueueRun(r); err != nil {
		return newError(err, http.StatusTooManyRequests, "suite run queue is full")
	}

	return c.JSON(http.StatusCreated, r)
}

// PostRunWebhookTrigger starts a run without a session; callers authenticate
// with an API key header instead, so CI systems can hook into deploys.
func (h *SuiteHandler) PostRunWebhookTrigger(c echo.Context) error {
	apiKeyValue := c.Request().Header.Get(internal.WebhookTriggerKeyHeader)
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid suite data")
	}

	_, err := h.apiKeyService.GetAPIKeyByValue(c.Request().Context(), apiKeyValue)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
	}

	s, err := h.suiteService.GetSuiteByID(c.Request().Context(), rp.SuiteID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "suite not found")
	}

	r, err := h.suiteService.CreateRun(c.Request().Context(), s.SuiteID, store.TriggerWebhook)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "unable to create run")
	}

	if err := h.suiteService.EnqueueRun(r); err != nil {
		return echo.NewHTTPError(
			http.StatusTooManyRequests, "suite run queue is full",
		).WithInternal(err)
	}

	return c.JSON(http.StatusCreated, r)
}

func (h *SuiteHandler) GetSuiteRun(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid run data")
	}

	r, err := h.suiteService.GetRunByID(c.Request().Context(), rp.RunID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "run not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read run data")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *SuiteHandler) DeleteSuiteRun(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid run data")
	}

	if err := h.suiteService.DeleteRun(c.Request().Context(), rp.RunID); err != nil {
		return newError(err, http.StatusInternalServerError, "unable to delete run")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SuiteHandler) GetLatestSuiteRuns(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid suite data")
	}

	runs, err := h.suiteService.ListLatestSuiteRuns(c.Request().Context(), rp.SuiteID, 3)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return newError(err, http.StatusBadRequest, "unable to list suite runs")
	}

	return c.JSON(http.StatusOK, runs)
}

func (h *SuiteHandler) GetSuiteRuns(c echo.Context) error {
	lrp := new(ListRunsParams)
	if err := c.Bind(lrp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid request data")
	}

	count, err := h.suiteService.GetSuiteRunCount(c.Request().Context(), lrp.SuiteID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return newError(err, http.StatusInternalServerError, "unable to count suite runs")
	}

	maxPages := count / maxRunsPerPage
	if count%maxRunsPerPage != 0 {
		maxPages++
	}

	page := max(lrp.Page, 1)
	runs, err := h.suiteService.ListSuiteRunsPaginated(
		c.Request().Context(),
		lrp.SuiteID,
		maxRunsPerPage,
		(page-1)*maxRunsPerPage,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return newError(err, http.StatusInternalServerError, "error listing suite runs")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"runs":      runs,
		"page":      page,
		"max_pages": maxPages,
		"count":     count,
	})
}

func (h *SuiteHandler) GetRunOutput(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid request ID")
	}

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	rq, ok := h.suiteService.GetSuiteRunQueue(rp.SuiteID)
	if !ok {
		return nil
	}

	id := uuid.NewString()

	rq.OutputSSEClients.AddClient(id)
	defer rq.OutputSSEClients.RemoveClient(id)
	ch := rq.OutputSSEClients.GetClient(id)

	for {
		select {
		case <-c.Request().Context().Done():
			// client disconnected
			return nil
		case out := <-ch:
			// worker's output channel has data
			event := &Event{Data: []byte(out)}
			if err := event.MarshalTo(w); err != nil {
				c.Logger().Errorf("err marshaling event data: %+v", err)
			}
			w.Flush()
		default:
			// no new data, just wait
			time.Sleep(1 * time.Second)
		}
	}
}

func (h *SuiteHandler) GetRunStatus(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid request ID")
	}

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	rq, ok := h.suiteService.GetSuiteRunQueue(rp.SuiteID)
	if !ok {
		return nil
	}

	id := uuid.NewString()
	rq.StatusSSEClients.AddClient(id)
	defer rq.StatusSSEClients.RemoveClient(id)
	ch := rq.StatusSSEClients.GetClient(id)

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case r := <-ch:
			b, err := json.Marshal(r)
			if err != nil {
				c.Logger().Errorf("err marshaling run status: %+v", err)
				continue
			}
			event := &Event{Data: b}
			if err := event.MarshalTo(w); err != nil {
				c.Logger().Errorf("err marshaling event data: %+v", err)
			}
			w.Flush()
		default:
			time.Sleep(3 * time.Second)
		}
	}
}

func (h *SuiteHandler) PostCancelRun(c echo.Context) error {
	rp := new(RunParams)
	if err := c.Bind(rp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid suite or run ID")
	}

	rq, ok := h.suiteService.GetSuiteRunQueue(rp.SuiteID)
	if !ok {
		return newError(nil, http.StatusNotFound, "suite run queue not found")
	}

	rq.CancelRun(rp.RunID)

	return c.NoContent(http.StatusAccepted)
}
