// Command schemawatch probes API endpoints listed in a manifest and checks
// the JSON responses against an OpenAPI or Swagger schema. It runs once and
// exits, which makes it suitable for CI jobs; the server in cmd/server hosts
// the same checks as registered suites.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/schemawatch/schemawatch/internal/casing"
	"github.com/schemawatch/schemawatch/internal/openapi"
	"github.com/schemawatch/schemawatch/internal/service"
	"github.com/schemawatch/schemawatch/internal/validate"
	"golang.org/x/sync/errgroup"
)

const defaultTimeoutSeconds = 10

type config struct {
	schemaSource string
	baseURL      string
	manifestPath string
	caseStyle    string
	authHeader   string
	sshUser      string
	sshKeyPath   string
	timeout      int64
	jsonOutput   bool
	debug        bool
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	findings, err := run(context.Background(), cfg)
	if err != nil {
		// findings from targets probed before the failure still surface
		if len(findings) > 0 {
			reportFindings(cfg, findings)
		}
		fmt.Fprintln(os.Stderr, "schemawatch:", err)
		os.Exit(2)
	}

	reportFindings(cfg, findings)

	if len(findings) > 0 {
		if !cfg.jsonOutput {
			fmt.Printf("FAIL: %d schema conformance findings\n", len(findings))
		}
		os.Exit(1)
	}
	if !cfg.jsonOutput {
		fmt.Println("PASS: all responses conform to the schema")
	}
}

func reportFindings(cfg *config, findings []validate.Finding) {
	if cfg.jsonOutput {
		if err := json.NewEncoder(os.Stdout).Encode(findings); err != nil {
			fmt.Fprintln(os.Stderr, "schemawatch:", err)
			os.Exit(2)
		}
		return
	}
	for _, f := range findings {
		fmt.Println(f.String())
	}
}

func parseFlags(args []string) (*config, error) {
	cfg := new(config)
	fs := flag.NewFlagSet("schemawatch", flag.ContinueOnError)
	fs.StringVar(&cfg.schemaSource, "schema", "", "schema source: http(s)://, file:// or sftp:// URL")
	fs.StringVar(&cfg.baseURL, "base-url", "", "base URL the manifest paths are resolved against")
	fs.StringVar(&cfg.manifestPath, "manifest", "schemawatch.yml", "path to the target manifest")
	fs.StringVar(&cfg.caseStyle, "case", string(casing.Camel), "expected key case style")
	fs.StringVar(&cfg.authHeader, "auth", "", "Authorization header value sent with probes")
	fs.StringVar(&cfg.sshUser, "ssh-user", "", "SSH username for sftp:// schema sources")
	fs.StringVar(&cfg.sshKeyPath, "ssh-key", "", "path to an SSH private key for sftp:// schema sources")
	fs.Int64Var(&cfg.timeout, "timeout", defaultTimeoutSeconds, "per-probe timeout in seconds")
	fs.BoolVar(&cfg.jsonOutput, "json", false, "print findings as JSON")
	fs.BoolVar(&cfg.debug, "debug", false, "log each probe to stderr")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.schemaSource == "" {
		return nil, errors.New("-schema is required")
	}
	if cfg.baseURL == "" {
		return nil, errors.New("-base-url is required")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config) ([]validate.Finding, error) {
	raw, err := os.ReadFile(cfg.manifestPath)
	if err != nil {
		return nil, err
	}
	manifest, err := service.ParseManifest(raw)
	if err != nil {
		return nil, err
	}

	var cred *openapi.SSHCredential
	if cfg.sshKeyPath != "" {
		key, err := os.ReadFile(cfg.sshKeyPath)
		if err != nil {
			return nil, err
		}
		cred = &openapi.SSHCredential{Username: cfg.sshUser, PrivateKey: key}
	}

	timeout := time.Duration(cfg.timeout) * time.Second
	doc, err := openapi.Load(ctx, cfg.schemaSource, cred, timeout)
	if err != nil {
		return nil, err
	}
	doc, err = openapi.ReplaceRefs(doc)
	if err != nil {
		return nil, err
	}

	style := casing.Style(cfg.caseStyle)
	if manifest.Case != "" {
		style = casing.Style(manifest.Case)
	}
	check, err := casing.Checker(style)
	if err != nil {
		return nil, err
	}

	findings := make([]validate.Finding, 0)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(manifest.Parallel)
	for _, target := range manifest.Targets {
		target := target
		g.Go(func() error {
			fs, err := probeTarget(gctx, cfg, doc, check, manifest.IgnoreCase, target)
			if err != nil {
				return err
			}
			mu.Lock()
			findings = append(findings, fs...)
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	return findings, err
}

func probeTarget(
	ctx context.Context,
	cfg *config,
	doc map[string]any,
	check func(string) error,
	ignored []string,
	target service.Target,
) ([]validate.Finding, error) {
	ignored = append(append(make([]string, 0, len(ignored)+len(target.IgnoreCase)), ignored...), target.IgnoreCase...)

	timeout := target.TimeoutSeconds
	if timeout <= 0 {
		timeout = cfg.timeout
	}
	tctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	url := strings.TrimSuffix(cfg.baseURL, "/") + target.Path
	req, err := http.NewRequestWithContext(tctx, target.Method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if cfg.authHeader != "" {
		req.Header.Set("Authorization", cfg.authHeader)
	}

	if cfg.debug {
		fmt.Fprintf(os.Stderr, "probing %s %s\n", target.Method, url)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probing '%s': %w", target.Name, err)
	}
	defer res.Body.Close()
	if cfg.debug {
		fmt.Fprintf(os.Stderr, "%s responded %d\n", target.Name, res.StatusCode)
	}

	if res.StatusCode != target.Status {
		return []validate.Finding{{
			Path: target.Name,
			Message: fmt.Sprintf(
				"expected response status %d but received %d", target.Status, res.StatusCode,
			),
		}}, nil
	}

	var data any
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return []validate.Finding{{
			Path:    target.Name,
			Message: "response body is not valid JSON",
		}}, nil
	}

	schema, err := openapi.ResponseSchema(doc, target.Path, target.Method, target.Status)
	if err != nil {
		var docErr openapi.DocumentationError
		if errors.As(err, &docErr) {
			return []validate.Finding{{Path: target.Name, Message: docErr.Message}}, nil
		}
		return nil, fmt.Errorf("reading schema for '%s': %w", target.Name, err)
	}

	findings, err := validate.Response(schema, data, ignored)
	if err != nil {
		return nil, fmt.Errorf("validating '%s': %w", target.Name, err)
	}

	if err := casing.CheckResponse(data, check, ignored); err != nil {
		findings = append(findings, validate.Finding{Path: target.Name, Message: err.Error()})
	}
	if err := casing.CheckSchema(schema, check, ignored); err != nil {
		var caseErr casing.CaseError
		if !errors.As(err, &caseErr) {
			return nil, fmt.Errorf("checking schema casing for '%s': %w", target.Name, err)
		}
		findings = append(findings, validate.Finding{Path: target.Name, Message: err.Error()})
	}

	return findings, nil
}
