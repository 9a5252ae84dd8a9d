// Package validate compares decoded API response data against the schema item
// documenting it, collecting every mismatch instead of stopping at the first.
package validate

import (
	"fmt"
	"slices"
	"sort"

	"github.com/schemawatch/schemawatch/internal/openapi"
)

// Finding is a single point of disagreement between a response and its schema.
type Finding struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.Path, f.Message)
}

// Response validates decoded response data against a schema item. Mismatches
// are returned as findings; a malformed schema is returned as an error
// (openapi.SchemaError) since no verdict can be reached from it. Keys in the
// ignored list are exempt from missing/undocumented checks.
func Response(schema map[string]any, data any, ignored []string) ([]Finding, error) {
	w := &walker{ignored: ignored}
	if err := w.item(schema, data, "$"); err != nil {
		return nil, err
	}
	return w.findings, nil
}

type walker struct {
	findings []Finding
	ignored  []string
}

func (w *walker) add(path, format string, args ...any) {
	w.findings = append(w.findings, Finding{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (w *walker) isIgnored(key string) bool {
	return slices.Contains(w.ignored, key)
}

func (w *walker) item(schema map[string]any, data any, path string) error {
	t, err := openapi.ReadType(schema)
	if err != nil {
		return err
	}

	if data == nil {
		if !openapi.IsNullable(schema) {
			w.add(path, "received a null value for a non-nullable schema item")
		}
		return nil
	}

	switch t {
	case "object":
		return w.object(schema, data, path)
	case "array":
		return w.array(schema, data, path)
	case "string", "file":
		if _, ok := data.(string); !ok {
			w.add(path, "expected a %s but received %s", t, typeName(data))
		}
	case "boolean":
		if _, ok := data.(bool); !ok {
			w.add(path, "expected a boolean but received %s", typeName(data))
		}
	case "integer":
		if !isInteger(data) {
			w.add(path, "expected an integer but received %s", typeName(data))
		}
	case "number":
		if !isNumber(data) {
			w.add(path, "expected a number but received %s", typeName(data))
		}
	}
	return nil
}

func (w *walker) object(schema map[string]any, data any, path string) error {
	obj, ok := data.(map[string]any)
	if !ok {
		w.add(path, "expected an object but received %s", typeName(data))
		return nil
	}

	properties, err := openapi.ReadProperties(schema)
	if err != nil {
		return err
	}

	// additionalProperties: one schema documents every value
	if valueSchema, ok := properties[""]; ok && len(properties) == 1 {
		vs, ok := valueSchema.(map[string]any)
		if !ok {
			return openapi.SchemaError{
				Message: fmt.Sprintf("Schema item at `%s` is not an object.", path),
			}
		}
		for _, key := range sortedKeys(obj) {
			if err := w.item(vs, obj[key], path+"."+key); err != nil {
				return err
			}
		}
		return nil
	}

	for _, key := range sortedKeys(properties) {
		sub, ok := properties[key].(map[string]any)
		if !ok {
			return openapi.SchemaError{
				Message: fmt.Sprintf("The schema property `%s` is not an object.", key),
			}
		}
		value, present := obj[key]
		if !present {
			if !w.isIgnored(key) {
				w.add(path+"."+key, "key is documented in the schema but missing from the response")
			}
			continue
		}
		if err := w.item(sub, value, path+"."+key); err != nil {
			return err
		}
	}

	for _, key := range sortedKeys(obj) {
		if _, documented := properties[key]; !documented && !w.isIgnored(key) {
			w.add(path+"."+key, "key is in the response but not documented in the schema")
		}
	}
	return nil
}

func (w *walker) array(schema map[string]any, data any, path string) error {
	arr, ok := data.([]any)
	if !ok {
		w.add(path, "expected an array but received %s", typeName(data))
		return nil
	}
	items, err := openapi.ReadItems(schema)
	if err != nil {
		return err
	}
	for i, element := range arr {
		if err := w.item(items, element, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// isInteger accepts whole numbers in any of the encodings JSON and YAML
// decoders produce.
func isInteger(data any) bool {
	switch v := data.(type) {
	case int, int64, uint64:
		return true
	case float64:
		return v == float64(int64(v))
	default:
		return false
	}
}

func isNumber(data any) bool {
	switch data.(type) {
	case int, int64, uint64, float64:
		return true
	default:
		return false
	}
}

func typeName(data any) string {
	switch data.(type) {
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case int, int64, uint64, float64:
		return "a number"
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", data)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
