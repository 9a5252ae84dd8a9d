package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/schemawatch/schemawatch/internal"
	"github.com/schemawatch/schemawatch/internal/casing"
	"github.com/schemawatch/schemawatch/internal/openapi"
	"github.com/schemawatch/schemawatch/internal/store"
	"github.com/schemawatch/schemawatch/internal/util"
	"github.com/schemawatch/schemawatch/internal/validate"
	"golang.org/x/sync/errgroup"
)

type SuiteServicer interface {
	GetSuiteRunData(context.Context, int64) (*store.SuiteRunData, error)
	GetRunByID(context.Context, int64) (*store.Run, error)
	UpdateRunStartedOn(context.Context, int64, store.RunStatus, *time.Time) error
	UpdateRunEndedOn(context.Context, int64, store.RunStatus, *string, int64, *time.Time) error
	AppendRunOutput(context.Context, int64, string) error
}

func NewRunQueue(suiteService SuiteServicer, schemas SchemaProvider, maxRuns int64) *RunQueue {
	return &RunQueue{
		suiteService:     suiteService,
		schemas:          schemas,
		OutputSSEClients: NewSSEClientMap[string](),
		StatusSSEClients: NewSSEClientMap[store.Run](),
		queue:            make(chan *store.Run, maxRuns),
		done:             make(chan struct{}),
		cancelRunMap:     NewCancelMap[int64](),
	}
}

type RunQueue struct {
	suiteService     SuiteServicer
	schemas          SchemaProvider
	OutputSSEClients *SSEClientMap[string]
	StatusSSEClients *SSEClientMap[store.Run]

	queue        chan *store.Run
	done         chan struct{}
	cancelRunMap *CancelMap[int64]

	outputCh chan string
	statusCh chan store.Run
	mu       sync.Mutex
}

func (rq *RunQueue) CancelRun(runID int64) {
	rq.cancelRunMap.Call(runID)
}

func (rq *RunQueue) Enqueue(r *store.Run) error {
	select {
	case rq.queue <- r:
		return nil
	default:
		return NewErrRunQueueFull()
	}
}

func (rq *RunQueue) Run() {
	for {
		select {
		case run := <-rq.queue:
			rq.outputCh = make(chan string)
			rq.statusCh = make(chan store.Run)

			ctx, cancel := context.WithCancel(context.Background())
			rq.cancelRunMap.AddCancel(run.RunID, cancel)

			go rq.handleOutput(ctx, run.RunID)
			go rq.handleStatus()

			if findingsJSON, findingCount, err := rq.processRun(ctx, run); err != nil {
				endedOn := time.Now().UTC()
				run.EndedOn = &endedOn
				if _, ok := err.(RunCancelError); ok {
					run.Status = store.StatusCancelled
				} else {
					run.Status = store.StatusFailed
				}
				// findings from targets probed before the failure still count
				if sqlErr := rq.suiteService.UpdateRunEndedOn(
					context.Background(),
					run.RunID,
					run.Status,
					findingsJSON,
					findingCount,
					run.EndedOn,
				); sqlErr != nil {
					log.Println("err updating run status to failed:", errors.Join(err, sqlErr))
				}
				log.Println("err processing run:", err)
				r, err := rq.suiteService.GetRunByID(context.Background(), run.RunID)
				if err != nil {
					log.Println("err getting run by id")
				} else {
					run = r
					rq.statusCh <- *r
				}

				failMessage := `
=============================================
FAIL || Suite run failed.
=============================================
`
				rq.outputCh <- failMessage
			}

			close(rq.outputCh)
			close(rq.statusCh)
			rq.cancelRunMap.RemoveCancel(run.RunID)
		case <-rq.done:
			close(rq.queue)
			return
		}
	}
}

func (rq *RunQueue) Shutdown() {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	select {
	case <-rq.done:
	default:
		close(rq.done)
	}
}

func (rq *RunQueue) handleOutput(ctx context.Context, runID int64) {
	for out := range rq.outputCh {
		if err := rq.suiteService.AppendRunOutput(ctx, runID, out); err != nil {
			log.Printf("err appending run output: %+v\n", err)
		}
		rq.OutputSSEClients.SendToClients(out)
	}
}

func (rq *RunQueue) handleStatus() {
	for r := range rq.statusCh {
		rq.StatusSSEClients.SendToClients(r)
	}
}

// processRun executes one run end to end. On failure it returns whatever
// findings had accumulated before the error so the caller can persist them.
func (rq *RunQueue) processRun(
	ctx context.Context,
	run *store.Run,
) (*string, int64, error) {
	srd, err := rq.suiteService.GetSuiteRunData(ctx, run.RunSuiteID)
	if err != nil {
		rq.outputCh <- fmt.Sprintf("err getting suite/credential: %+v\n", err)
		return nil, 0, err
	}

	// update run status to running
	run.Status = store.StatusRunning
	startedOn := time.Now().UTC()
	run.StartedOn = &startedOn

	if err := rq.suiteService.UpdateRunStartedOn(
		context.Background(),
		run.RunID,
		run.Status,
		run.StartedOn,
	); err != nil {
		rq.outputCh <- "err updating run started on"
		return nil, 0, err
	}

	r, err := rq.suiteService.GetRunByID(context.Background(), run.RunID)
	if err != nil {
		rq.outputCh <- "err getting run by ID"
		return nil, 0, err
	}
	run = r
	rq.statusCh <- *r

	manifest, err := ParseManifest([]byte(srd.Manifest))
	if err != nil {
		rq.outputCh <- fmt.Sprintf("err parsing manifest: %+v\n", err)
		return nil, 0, err
	}
	rq.outputCh <- fmt.Sprintf("Parsed manifest with %d targets.\n", len(manifest.Targets))

	var cred *openapi.SSHCredential
	if srd.CredentialKind != nil && *srd.CredentialKind == store.CredentialSSH {
		var username string
		if srd.Username != nil {
			username = *srd.Username
		}
		cred = &openapi.SSHCredential{Username: username, PrivateKey: srd.Secret}
	}

	doc, err := rq.schemas.GetSchema(ctx, srd.SchemaSource, cred)
	if err != nil {
		rq.outputCh <- fmt.Sprintf("err loading schema: %+v\n", err)
		return nil, 0, err
	}
	rq.outputCh <- fmt.Sprintf("Loaded schema from %s\n", srd.SchemaSource)

	style := casing.Style(srd.CaseStyle)
	if manifest.Case != "" {
		style = casing.Style(manifest.Case)
	}
	check, err := casing.Checker(style)
	if err != nil {
		rq.outputCh <- fmt.Sprintf("err resolving case style: %+v\n", err)
		return nil, 0, err
	}

	findings := make([]validate.Finding, 0)
	var findingsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(manifest.Parallel)
	for _, target := range manifest.Targets {
		target := target
		g.Go(func() error {
			fs, err := rq.probeTarget(gctx, srd, doc, check, manifest.IgnoreCase, target)
			if err != nil {
				return err
			}
			findingsMu.Lock()
			findings = append(findings, fs...)
			findingsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		findingsMu.Lock()
		findingsJSON, findingCount := marshalFindings(findings)
		findingsMu.Unlock()
		if ctx.Err() != nil {
			return findingsJSON, findingCount, RunCancelError{Message: "run cancelled by user"}
		}
		return findingsJSON, findingCount, err
	}

	findingsJSON, findingCount := marshalFindings(findings)

	run.Status = store.StatusPassed
	if findingCount > 0 {
		run.Status = store.StatusFailed
	}
	run.EndedOn = util.AsPtr(time.Now().UTC())
	if err := rq.suiteService.UpdateRunEndedOn(
		context.Background(),
		run.RunID,
		run.Status,
		findingsJSON,
		findingCount,
		run.EndedOn,
	); err != nil {
		rq.outputCh <- "err updating run ended on"
		return nil, 0, err
	}

	if len(findings) > 0 {
		rq.outputCh <- fmt.Sprintf(`
=============================================
FAIL || %d schema conformance findings.
=============================================
`, len(findings))
	} else {
		passMessage := `
=============================================
PASS || All responses conform to the schema.
=============================================
`
		rq.outputCh <- passMessage
	}

	r, err = rq.suiteService.GetRunByID(context.Background(), run.RunID)
	if err != nil {
		rq.outputCh <- "err getting run by id"
		return nil, 0, err
	}

	run = r
	rq.statusCh <- *r

	return nil, 0, nil
}

func marshalFindings(findings []validate.Finding) (*string, int64) {
	if len(findings) == 0 {
		return nil, 0
	}
	b, err := json.Marshal(findings)
	if err != nil {
		log.Println("err marshaling findings:", err)
		return nil, int64(len(findings))
	}
	return util.AsPtr(string(b)), int64(len(findings))
}

// probeTarget requests one manifest target against the suite's base URL and
// checks the decoded body against the schema and case style. Contract
// violations come back as findings; infrastructure failures as errors.
func (rq *RunQueue) probeTarget(
	ctx context.Context,
	srd *store.SuiteRunData,
	doc map[string]any,
	check func(string) error,
	ignored []string,
	target Target,
) ([]validate.Finding, error) {
	ignored = append(append(make([]string, 0, len(ignored)+len(target.IgnoreCase)), ignored...), target.IgnoreCase...)

	timeout := target.TimeoutSeconds
	if timeout <= 0 {
		timeout = internal.Config.ProbeTimeoutSeconds
	}
	tctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	rq.outputCh <- fmt.Sprintf("Probing '%s'\n", target.Name)

	url := strings.TrimSuffix(srd.BaseURL, "/") + target.Path
	req, err := http.NewRequestWithContext(tctx, target.Method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if srd.CredentialKind != nil && *srd.CredentialKind == store.CredentialHeader {
		req.Header.Set("Authorization", string(srd.Secret))
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("err probing '%s': %w", target.Name, err)
	}
	defer res.Body.Close()

	if res.StatusCode != target.Status {
		f := validate.Finding{
			Path: target.Name,
			Message: fmt.Sprintf(
				"expected response status %d but received %d", target.Status, res.StatusCode,
			),
		}
		rq.outputCh <- "  |  " + f.String() + "\n"
		return []validate.Finding{f}, nil
	}

	var data any
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		f := validate.Finding{Path: target.Name, Message: "response body is not valid JSON"}
		rq.outputCh <- "  |  " + f.String() + "\n"
		return []validate.Finding{f}, nil
	}

	schema, err := openapi.ResponseSchema(doc, target.Path, target.Method, target.Status)
	if err != nil {
		var docErr openapi.DocumentationError
		if errors.As(err, &docErr) {
			f := validate.Finding{Path: target.Name, Message: docErr.Message}
			rq.outputCh <- "  |  " + f.String() + "\n"
			return []validate.Finding{f}, nil
		}
		return nil, fmt.Errorf("err reading schema for '%s': %w", target.Name, err)
	}

	findings, err := validate.Response(schema, data, ignored)
	if err != nil {
		return nil, fmt.Errorf("err validating '%s': %w", target.Name, err)
	}

	if err := casing.CheckResponse(data, check, ignored); err != nil {
		findings = append(findings, validate.Finding{Path: target.Name, Message: err.Error()})
	}
	if err := casing.CheckSchema(schema, check, ignored); err != nil {
		var caseErr casing.CaseError
		if !errors.As(err, &caseErr) {
			return nil, fmt.Errorf("err checking schema casing for '%s': %w", target.Name, err)
		}
		findings = append(findings, validate.Finding{Path: target.Name, Message: err.Error()})
	}

	for _, f := range findings {
		rq.outputCh <- "  |  " + f.String() + "\n"
	}

	return findings, nil
}
