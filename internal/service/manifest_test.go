package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseManifest(t *testing.T) {
	t.Run("success - defaults are filled in", func(t *testing.T) {
		// arrange
		raw := []byte(`targets:
  - path: /api/items/
`)

		// act
		m, err := ParseManifest(raw)

		// assert
		assert.NoError(t, err)
		assert.NotNil(t, m)
		assert.Equal(t, 1, m.Parallel)
		assert.Len(t, m.Targets, 1)
		assert.Equal(t, "GET", m.Targets[0].Method)
		assert.Equal(t, 200, m.Targets[0].Status)
		assert.Equal(t, "GET /api/items/", m.Targets[0].Name)
	})
	t.Run("success - explicit values are kept", func(t *testing.T) {
		// arrange
		raw := []byte(`case: snake_case
ignore_case:
  - DEBUG
parallel: 4
targets:
  - name: create item
    path: /api/items/
    method: post
    status: 201
    timeout_seconds: 30
    ignore_case:
      - itemID
`)

		// act
		m, err := ParseManifest(raw)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, "snake_case", m.Case)
		assert.Equal(t, []string{"DEBUG"}, m.IgnoreCase)
		assert.Equal(t, 4, m.Parallel)
		target := m.Targets[0]
		assert.Equal(t, "create item", target.Name)
		assert.Equal(t, "POST", target.Method)
		assert.Equal(t, 201, target.Status)
		assert.Equal(t, int64(30), target.TimeoutSeconds)
		assert.Equal(t, []string{"itemID"}, target.IgnoreCase)
	})
	t.Run("failure - no targets", func(t *testing.T) {
		// act
		_, err := ParseManifest([]byte("parallel: 2"))

		// assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "manifest lists no targets")
	})
	t.Run("failure - target without a path", func(t *testing.T) {
		// arrange
		raw := []byte(`targets:
  - method: get
  - method: post
`)

		// act
		_, err := ParseManifest(raw)

		// assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "manifest target 1 has no path")
	})
	t.Run("failure - not yaml", func(t *testing.T) {
		// act
		_, err := ParseManifest([]byte("\t{{nope"))

		// assert
		assert.Error(t, err)
	})
}
