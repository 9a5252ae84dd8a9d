package validate

import (
	"errors"
	"testing"

	"github.com/schemawatch/schemawatch/internal/openapi"
	"github.com/stretchr/testify/assert"
)

func itemSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":        map[string]any{"type": "integer"},
			"name":      map[string]any{"type": "string"},
			"inStock":   map[string]any{"type": "boolean"},
			"price":     map[string]any{"type": "number"},
			"ownerName": map[string]any{"type": "string", "x-nullable": "true"},
		},
	}
}

func validItem() map[string]any {
	return map[string]any{
		"id":        1.0,
		"name":      "wrench",
		"inStock":   true,
		"price":     9.99,
		"ownerName": nil,
	}
}

func TestResponse(t *testing.T) {
	t.Run("success - conforming response has no findings", func(t *testing.T) {
		// act
		findings, err := Response(itemSchema(), validItem(), nil)

		// assert
		assert.NoError(t, err)
		assert.Empty(t, findings)
	})
	t.Run("failure - every type mismatch is collected", func(t *testing.T) {
		// arrange
		data := map[string]any{
			"id":        "one",
			"name":      1.0,
			"inStock":   "yes",
			"price":     "free",
			"ownerName": "alice",
		}

		// act
		findings, err := Response(itemSchema(), data, nil)

		// assert
		assert.NoError(t, err)
		assert.Len(t, findings, 4)
		messages := make(map[string]string, len(findings))
		for _, f := range findings {
			messages[f.Path] = f.Message
		}
		assert.Equal(t, "expected an integer but received a string", messages["$.id"])
		assert.Equal(t, "expected a string but received a number", messages["$.name"])
		assert.Equal(t, "expected a boolean but received a string", messages["$.inStock"])
		assert.Equal(t, "expected a number but received a string", messages["$.price"])
	})
	t.Run("failure - null for a non-nullable item", func(t *testing.T) {
		// arrange
		data := validItem()
		data["name"] = nil

		// act
		findings, err := Response(itemSchema(), data, nil)

		// assert
		assert.NoError(t, err)
		assert.Len(t, findings, 1)
		assert.Equal(t, "$.name", findings[0].Path)
		assert.Equal(
			t, "received a null value for a non-nullable schema item", findings[0].Message)
	})
	t.Run("success - nullable spellings allow null", func(t *testing.T) {
		for _, attrs := range []map[string]any{
			{"nullable": true},
			{"nullable": "true"},
			{"x-nullable": true},
			{"x-nullable": "true"},
		} {
			// arrange
			schema := map[string]any{"type": "string"}
			for k, v := range attrs {
				schema[k] = v
			}

			// act
			findings, err := Response(schema, nil, nil)

			// assert
			assert.NoError(t, err)
			assert.Empty(t, findings)
		}
	})
	t.Run("failure - documented key missing from the response", func(t *testing.T) {
		// arrange
		data := validItem()
		delete(data, "price")

		// act
		findings, err := Response(itemSchema(), data, nil)

		// assert
		assert.NoError(t, err)
		assert.Len(t, findings, 1)
		assert.Equal(t, "$.price", findings[0].Path)
		assert.Equal(
			t, "key is documented in the schema but missing from the response",
			findings[0].Message)
	})
	t.Run("failure - response key not documented in the schema", func(t *testing.T) {
		// arrange
		data := validItem()
		data["color"] = "red"

		// act
		findings, err := Response(itemSchema(), data, nil)

		// assert
		assert.NoError(t, err)
		assert.Len(t, findings, 1)
		assert.Equal(t, "$.color", findings[0].Path)
		assert.Equal(
			t, "key is in the response but not documented in the schema", findings[0].Message)
	})
	t.Run("success - ignored keys skip presence checks", func(t *testing.T) {
		// arrange
		data := validItem()
		delete(data, "price")
		data["color"] = "red"

		// act
		findings, err := Response(itemSchema(), data, []string{"price", "color"})

		// assert
		assert.NoError(t, err)
		assert.Empty(t, findings)
	})
	t.Run("failure - array elements carry their index in the path", func(t *testing.T) {
		// arrange
		schema := map[string]any{
			"type": "object",
			"properties": map[string]any{
				"results": map[string]any{
					"type":  "array",
					"items": itemSchema(),
				},
			},
		}
		third := validItem()
		third["ownerName"] = 42.0
		data := map[string]any{
			"results": []any{validItem(), validItem(), third},
		}

		// act
		findings, err := Response(schema, data, nil)

		// assert
		assert.NoError(t, err)
		assert.Len(t, findings, 1)
		assert.Equal(t, "$.results[2].ownerName", findings[0].Path)
	})
	t.Run("failure - object expected but array received", func(t *testing.T) {
		// act
		findings, err := Response(itemSchema(), []any{validItem()}, nil)

		// assert
		assert.NoError(t, err)
		assert.Len(t, findings, 1)
		assert.Equal(t, "$", findings[0].Path)
		assert.Equal(t, "expected an object but received an array", findings[0].Message)
	})
	t.Run("success - additionalProperties documents every value", func(t *testing.T) {
		// arrange
		schema := map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "integer"},
		}
		data := map[string]any{"a": 1.0, "b": 2.0}

		// act
		findings, err := Response(schema, data, nil)

		// assert
		assert.NoError(t, err)
		assert.Empty(t, findings)
	})
	t.Run("failure - additionalProperties value mismatch", func(t *testing.T) {
		// arrange
		schema := map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "integer"},
		}
		data := map[string]any{"a": 1.0, "b": "two"}

		// act
		findings, err := Response(schema, data, nil)

		// assert
		assert.NoError(t, err)
		assert.Len(t, findings, 1)
		assert.Equal(t, "$.b", findings[0].Path)
	})
	t.Run("failure - integers may arrive as whole floats only", func(t *testing.T) {
		// arrange
		schema := map[string]any{"type": "integer"}

		// act
		whole, wholeErr := Response(schema, 3.0, nil)
		fractional, fractionalErr := Response(schema, 3.5, nil)

		// assert
		assert.NoError(t, wholeErr)
		assert.Empty(t, whole)
		assert.NoError(t, fractionalErr)
		assert.Len(t, fractional, 1)
	})
	t.Run("error - malformed schema yields no verdict", func(t *testing.T) {
		// arrange
		schema := map[string]any{"type": "array"}

		// act
		findings, err := Response(schema, []any{1.0}, nil)

		// assert
		assert.Error(t, err)
		var schemaErr openapi.SchemaError
		assert.True(t, errors.As(err, &schemaErr))
		assert.Nil(t, findings)
	})
}

func TestFindingString(t *testing.T) {
	// arrange
	f := Finding{Path: "$.results[2].ownerName", Message: "expected a string but received a number"}

	// assert
	assert.Equal(
		t, "$.results[2].ownerName: expected a string but received a number", f.String())
}
