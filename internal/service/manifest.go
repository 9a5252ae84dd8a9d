package service

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// Target is one endpoint probed during a run.
type Target struct {
	Name           string   `yaml:"name"`
	Path           string   `yaml:"path"`
	Method         string   `yaml:"method"`
	Status         int      `yaml:"status"`
	TimeoutSeconds int64    `yaml:"timeout_seconds"`
	IgnoreCase     []string `yaml:"ignore_case"`
}

// Manifest lists the endpoints a suite probes and how to probe them.
type Manifest struct {
	Case       string   `yaml:"case"`
	IgnoreCase []string `yaml:"ignore_case"`
	Parallel   int      `yaml:"parallel"`
	Targets    []Target `yaml:"targets"`
}

// ParseManifest decodes a manifest and fills in per-target defaults:
// method GET, status 200, name derived from method and path.
func ParseManifest(raw []byte) (*Manifest, error) {
	m := new(Manifest)
	if err := yaml.Unmarshal(raw, m); err != nil {
		return nil, errors.Wrap(err, "decoding manifest yaml")
	}
	if len(m.Targets) == 0 {
		return nil, errors.New("manifest lists no targets")
	}
	if m.Parallel < 1 {
		m.Parallel = 1
	}
	for i := range m.Targets {
		t := &m.Targets[i]
		if t.Path == "" {
			return nil, errors.Errorf("manifest target %d has no path", i+1)
		}
		if t.Method == "" {
			t.Method = http.MethodGet
		} else {
			t.Method = strings.ToUpper(t.Method)
		}
		if t.Status == 0 {
			t.Status = http.StatusOK
		}
		if t.Name == "" {
			t.Name = fmt.Sprintf("%s %s", t.Method, t.Path)
		}
	}
	return m, nil
}
