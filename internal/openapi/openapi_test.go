package openapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadType(t *testing.T) {
	t.Run("success - supported types are read", func(t *testing.T) {
		for _, expected := range SupportedTypes() {
			// arrange
			item := map[string]any{"type": expected}

			// act
			got, err := ReadType(item)

			// assert
			assert.NoError(t, err)
			assert.Equal(t, expected, got)
		}
	})
	t.Run("failure - item is not an object", func(t *testing.T) {
		// act
		_, err := ReadType("string")

		// assert
		assert.Error(t, err)
		var schemaErr SchemaError
		assert.True(t, errors.As(err, &schemaErr))
	})
	t.Run("failure - type is a list of types", func(t *testing.T) {
		// arrange
		item := map[string]any{"type": []any{"string", "null"}}

		// act
		_, err := ReadType(item)

		// assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "The type should be a single string.")
	})
	t.Run("failure - type is missing", func(t *testing.T) {
		// arrange
		item := map[string]any{"properties": map[string]any{}}

		// act
		_, err := ReadType(item)

		// assert
		assert.Error(t, err)
	})
	t.Run("failure - type is not supported", func(t *testing.T) {
		// arrange
		item := map[string]any{"type": "null"}

		// act
		_, err := ReadType(item)

		// assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "The type `null` is not supported.")
	})
}

func TestReadItems(t *testing.T) {
	t.Run("success - items are read", func(t *testing.T) {
		// arrange
		array := map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		}

		// act
		items, err := ReadItems(array)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"type": "string"}, items)
	})
	t.Run("failure - items attribute is missing", func(t *testing.T) {
		// arrange
		array := map[string]any{"type": "array"}

		// act
		_, err := ReadItems(array)

		// assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Array is missing an `items` attribute.")
	})
	t.Run("failure - items attribute is not a schema object", func(t *testing.T) {
		// arrange
		array := map[string]any{"type": "array", "items": "string"}

		// act
		_, err := ReadItems(array)

		// assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Array `items` attribute is not a schema object.")
	})
}

func TestReadProperties(t *testing.T) {
	t.Run("success - properties are read", func(t *testing.T) {
		// arrange
		obj := map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
		}

		// act
		properties, err := ReadProperties(obj)

		// assert
		assert.NoError(t, err)
		assert.Contains(t, properties, "name")
	})
	t.Run("success - additionalProperties surface under the empty key", func(t *testing.T) {
		// arrange
		obj := map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "integer"},
		}

		// act
		properties, err := ReadProperties(obj)

		// assert
		assert.NoError(t, err)
		assert.Len(t, properties, 1)
		assert.Equal(t, map[string]any{"type": "integer"}, properties[""])
	})
	t.Run("failure - properties attribute is missing", func(t *testing.T) {
		// arrange
		obj := map[string]any{"type": "object"}

		// act
		_, err := ReadProperties(obj)

		// assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Object is missing a `properties` attribute.")
	})
	t.Run("failure - additionalProperties is not a schema object", func(t *testing.T) {
		// arrange
		obj := map[string]any{"type": "object", "additionalProperties": true}

		// act
		_, err := ReadProperties(obj)

		// assert
		assert.Error(t, err)
		assert.Contains(
			t, err.Error(), "Object `additionalProperties` attribute is not a schema object.")
	})
}

func TestIsNullable(t *testing.T) {
	tests := []struct {
		name     string
		item     any
		expected bool
	}{
		{"nullable true", map[string]any{"type": "string", "nullable": true}, true},
		{"nullable string true", map[string]any{"type": "string", "nullable": "true"}, true},
		{"x-nullable true", map[string]any{"type": "string", "x-nullable": true}, true},
		{"x-nullable string true", map[string]any{"type": "string", "x-nullable": "true"}, true},
		{"nullable false", map[string]any{"type": "string", "nullable": false}, false},
		{"no nullable attribute", map[string]any{"type": "string"}, false},
		{"not an object", "string", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsNullable(tc.item))
		})
	}
}

func TestIndex(t *testing.T) {
	t.Run("success - key is found", func(t *testing.T) {
		// arrange
		schema := map[string]any{"paths": map[string]any{}}

		// act
		m, err := Index(schema, "paths", "")

		// assert
		assert.NoError(t, err)
		assert.NotNil(t, m)
	})
	t.Run("failure - key is missing and the addon is appended", func(t *testing.T) {
		// arrange
		schema := map[string]any{"paths": map[string]any{}}

		// act
		_, err := Index(schema, "/api/items/", " Is the endpoint documented?")

		// assert
		assert.Error(t, err)
		var docErr DocumentationError
		assert.True(t, errors.As(err, &docErr))
		assert.Contains(t, err.Error(), "index the OpenAPI schema by `/api/items/`.")
		assert.Contains(t, err.Error(), "Is the endpoint documented?")
	})
	t.Run("failure - value is not an object", func(t *testing.T) {
		// arrange
		schema := map[string]any{"paths": "not an object"}

		// act
		_, err := Index(schema, "paths", "")

		// assert
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "The schema value at `paths` is not an object.")
	})
}
