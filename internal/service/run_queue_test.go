package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/schemawatch/schemawatch/internal"
	"github.com/schemawatch/schemawatch/internal/store"
	"github.com/schemawatch/schemawatch/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	internal.Config = &internal.Configuration{
		SessionExpiresHours: internal.NewHoursDuration(30 * 24),
		QueueSize:           3,
		ProbeTimeoutSeconds: 5,
		SchemaCacheMinutes:  15,
	}
	os.Exit(m.Run())
}

const runQueueManifest = "targets:\n  - path: /api/items/\n"

func itemDoc() map[string]any {
	return map[string]any{
		"swagger": "2.0",
		"paths": map[string]any{
			"/api/items/": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": map[string]any{
							"schema": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"id":        map[string]any{"type": "integer"},
									"ownerName": map[string]any{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestRunQueue_Enqueue(t *testing.T) {
	t.Run("success - run fits in the queue", func(t *testing.T) {
		// arrange
		rq := NewRunQueue(nil, nil, 1)

		// act
		err := rq.Enqueue(&store.Run{RunID: 1, RunSuiteID: 1})

		// assert
		assert.NoError(t, err)
	})
	t.Run("failure - queue is full", func(t *testing.T) {
		// arrange
		rq := NewRunQueue(nil, nil, 1)
		assert.NoError(t, rq.Enqueue(&store.Run{RunID: 1, RunSuiteID: 1}))

		// act
		err := rq.Enqueue(&store.Run{RunID: 2, RunSuiteID: 1})

		// assert
		assert.Error(t, err)
		var fullErr *ErrRunQueueFull
		assert.True(t, errors.As(err, &fullErr))
	})
}

func TestRunQueue_Run(t *testing.T) {
	t.Run("success - conforming responses pass the run", func(t *testing.T) {
		// arrange
		server := httptest.NewServer(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{"id": 1, "ownerName": "alice"})
			}))
		defer server.Close()

		run := &store.Run{RunID: 1, RunSuiteID: 1, Status: store.StatusQueued}
		srd := &store.SuiteRunData{
			SuiteID:      run.RunSuiteID,
			SchemaSource: "http://schemas.example.com/openapi.json",
			BaseURL:      server.URL,
			CaseStyle:    "camelCase",
			Manifest:     runQueueManifest,
		}

		ended := make(chan struct{})
		mockService := new(testutil.MockSuiteDataService)
		mockService.On("GetSuiteRunData", mock.Anything, run.RunSuiteID).Return(srd, nil)
		mockService.On(
			"UpdateRunStartedOn",
			mock.Anything, run.RunID, store.StatusRunning, mock.AnythingOfType("*time.Time"),
		).Return(nil)
		mockService.On("GetRunByID", mock.Anything, run.RunID).Return(run, nil)
		mockService.On(
			"AppendRunOutput", mock.Anything, run.RunID, mock.AnythingOfType("string"),
		).Return(nil)
		mockService.On(
			"UpdateRunEndedOn",
			mock.Anything,
			run.RunID,
			store.StatusPassed,
			(*string)(nil),
			int64(0),
			mock.AnythingOfType("*time.Time"),
		).Run(func(args mock.Arguments) {
			close(ended)
		}).Return(nil)

		mockSchemas := new(testutil.MockSchemaProvider)
		mockSchemas.On("GetSchema", mock.Anything, srd.SchemaSource, mock.Anything).
			Return(itemDoc(), nil)

		rq := NewRunQueue(mockService, mockSchemas, 1)
		defer rq.Shutdown()

		// act
		assert.NoError(t, rq.Enqueue(run))
		go rq.Run()

		// assert
		select {
		case <-ended:
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for the run to finish")
		}
		mockService.AssertExpectations(t)
	})
	t.Run("failure - findings fail the run", func(t *testing.T) {
		// arrange
		server := httptest.NewServer(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"id":        "one",
					"ownerName": "alice",
					"color":     "red",
				})
			}))
		defer server.Close()

		run := &store.Run{RunID: 2, RunSuiteID: 2, Status: store.StatusQueued}
		srd := &store.SuiteRunData{
			SuiteID:      run.RunSuiteID,
			SchemaSource: "http://schemas.example.com/openapi.json",
			BaseURL:      server.URL,
			CaseStyle:    "camelCase",
			Manifest:     runQueueManifest,
		}

		ended := make(chan struct{})
		var findingsJSON *string
		mockService := new(testutil.MockSuiteDataService)
		mockService.On("GetSuiteRunData", mock.Anything, run.RunSuiteID).Return(srd, nil)
		mockService.On(
			"UpdateRunStartedOn",
			mock.Anything, run.RunID, store.StatusRunning, mock.AnythingOfType("*time.Time"),
		).Return(nil)
		mockService.On("GetRunByID", mock.Anything, run.RunID).Return(run, nil)
		mockService.On(
			"AppendRunOutput", mock.Anything, run.RunID, mock.AnythingOfType("string"),
		).Return(nil)
		mockService.On(
			"UpdateRunEndedOn",
			mock.Anything,
			run.RunID,
			store.StatusFailed,
			mock.AnythingOfType("*string"),
			int64(2),
			mock.AnythingOfType("*time.Time"),
		).Run(func(args mock.Arguments) {
			findingsJSON = args.Get(3).(*string)
			close(ended)
		}).Return(nil)

		mockSchemas := new(testutil.MockSchemaProvider)
		mockSchemas.On("GetSchema", mock.Anything, srd.SchemaSource, mock.Anything).
			Return(itemDoc(), nil)

		rq := NewRunQueue(mockService, mockSchemas, 1)
		defer rq.Shutdown()

		// act
		assert.NoError(t, rq.Enqueue(run))
		go rq.Run()

		// assert
		select {
		case <-ended:
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for the run to finish")
		}
		assert.NotNil(t, findingsJSON)
		assert.Contains(t, *findingsJSON, "expected an integer but received a string")
		assert.Contains(t, *findingsJSON, "not documented in the schema")
	})
	t.Run("failure - findings survive a later probe failure", func(t *testing.T) {
		// arrange
		server := httptest.NewServer(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/slow/" {
					time.Sleep(3 * time.Second)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"id":        "one",
					"ownerName": "alice",
					"color":     "red",
				})
			}))
		defer server.Close()

		manifest := "targets:\n" +
			"  - path: /api/items/\n" +
			"  - path: /api/slow/\n" +
			"    timeout_seconds: 1\n"
		run := &store.Run{RunID: 4, RunSuiteID: 4, Status: store.StatusQueued}
		srd := &store.SuiteRunData{
			SuiteID:      run.RunSuiteID,
			SchemaSource: "http://schemas.example.com/openapi.json",
			BaseURL:      server.URL,
			CaseStyle:    "camelCase",
			Manifest:     manifest,
		}

		ended := make(chan struct{})
		var findingsJSON *string
		mockService := new(testutil.MockSuiteDataService)
		mockService.On("GetSuiteRunData", mock.Anything, run.RunSuiteID).Return(srd, nil)
		mockService.On(
			"UpdateRunStartedOn",
			mock.Anything, run.RunID, store.StatusRunning, mock.AnythingOfType("*time.Time"),
		).Return(nil)
		mockService.On("GetRunByID", mock.Anything, run.RunID).Return(run, nil)
		mockService.On(
			"AppendRunOutput", mock.Anything, run.RunID, mock.AnythingOfType("string"),
		).Return(nil)
		mockService.On(
			"UpdateRunEndedOn",
			mock.Anything,
			run.RunID,
			store.StatusFailed,
			mock.AnythingOfType("*string"),
			int64(2),
			mock.AnythingOfType("*time.Time"),
		).Run(func(args mock.Arguments) {
			findingsJSON = args.Get(3).(*string)
			close(ended)
		}).Return(nil)

		mockSchemas := new(testutil.MockSchemaProvider)
		mockSchemas.On("GetSchema", mock.Anything, srd.SchemaSource, mock.Anything).
			Return(itemDoc(), nil)

		rq := NewRunQueue(mockService, mockSchemas, 1)
		defer rq.Shutdown()

		// act
		assert.NoError(t, rq.Enqueue(run))
		go rq.Run()

		// assert
		select {
		case <-ended:
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for the run to finish")
		}
		assert.NotNil(t, findingsJSON)
		assert.Contains(t, *findingsJSON, "expected an integer but received a string")
		assert.Contains(t, *findingsJSON, "not documented in the schema")
	})
	t.Run("failure - unreadable schema fails the run", func(t *testing.T) {
		// arrange
		run := &store.Run{RunID: 3, RunSuiteID: 3, Status: store.StatusQueued}
		srd := &store.SuiteRunData{
			SuiteID:      run.RunSuiteID,
			SchemaSource: "http://schemas.example.com/openapi.json",
			BaseURL:      "http://localhost:1",
			CaseStyle:    "camelCase",
			Manifest:     runQueueManifest,
		}

		ended := make(chan struct{})
		mockService := new(testutil.MockSuiteDataService)
		mockService.On("GetSuiteRunData", mock.Anything, run.RunSuiteID).Return(srd, nil)
		mockService.On(
			"UpdateRunStartedOn",
			mock.Anything, run.RunID, store.StatusRunning, mock.AnythingOfType("*time.Time"),
		).Return(nil)
		mockService.On("GetRunByID", mock.Anything, run.RunID).Return(run, nil)
		mockService.On(
			"AppendRunOutput", mock.Anything, run.RunID, mock.AnythingOfType("string"),
		).Return(nil)
		mockService.On(
			"UpdateRunEndedOn",
			mock.Anything,
			run.RunID,
			store.StatusFailed,
			(*string)(nil),
			int64(0),
			mock.AnythingOfType("*time.Time"),
		).Run(func(args mock.Arguments) {
			close(ended)
		}).Return(nil)

		mockSchemas := new(testutil.MockSchemaProvider)
		mockSchemas.On("GetSchema", mock.Anything, srd.SchemaSource, mock.Anything).
			Return(nil, errors.New("schema endpoint returned status 500"))

		rq := NewRunQueue(mockService, mockSchemas, 1)
		defer rq.Shutdown()

		// act
		assert.NoError(t, rq.Enqueue(run))
		go rq.Run()

		// assert
		select {
		case <-ended:
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for the run to finish")
		}
	})
}
