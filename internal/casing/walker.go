package casing

import (
	"fmt"
	"slices"

	"github.com/schemawatch/schemawatch/internal/openapi"
)

// CheckResponse walks decoded response data and checks every object key
// against the case check. Non-object, non-array roots are skipped; only
// object keys carry a naming convention.
func CheckResponse(data any, check func(string) error, ignored []string) error {
	switch d := data.(type) {
	case map[string]any:
		return checkResponseObject(d, check, ignored)
	case []any:
		return checkResponseArray(d, check, ignored)
	default:
		return nil
	}
}

func checkResponseObject(obj map[string]any, check func(string) error, ignored []string) error {
	for key, value := range obj {
		if err := conditionalCheck(key, check, ignored); err != nil {
			return err
		}
		switch v := value.(type) {
		case map[string]any:
			if err := checkResponseObject(v, check, ignored); err != nil {
				return err
			}
		case []any:
			if err := checkResponseArray(v, check, ignored); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkResponseArray(items []any, check func(string) error, ignored []string) error {
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			if err := checkResponseObject(v, check, ignored); err != nil {
				return err
			}
		case []any:
			if err := checkResponseArray(v, check, ignored); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckSchema walks a schema item and checks every documented object key
// against the case check, mirroring CheckResponse on the schema side.
func CheckSchema(schema map[string]any, check func(string) error, ignored []string) error {
	t, err := openapi.ReadType(schema)
	if err != nil {
		return err
	}
	switch t {
	case "object":
		return checkSchemaObject(schema, check, ignored)
	case "array":
		return checkSchemaArray(schema, check, ignored)
	default:
		return nil
	}
}

func checkSchemaObject(obj map[string]any, check func(string) error, ignored []string) error {
	properties, err := openapi.ReadProperties(obj)
	if err != nil {
		return err
	}
	for key, value := range properties {
		if err := conditionalCheck(key, check, ignored); err != nil {
			return err
		}
		item, ok := value.(map[string]any)
		if !ok {
			return openapi.SchemaError{Message: fmt.Sprintf(
				"Schema property `%s` is not a schema object.\n\nProperty value: %v", key, value,
			)}
		}
		t, err := openapi.ReadType(item)
		if err != nil {
			return err
		}
		switch t {
		case "object":
			if err := checkSchemaObject(item, check, ignored); err != nil {
				return err
			}
		case "array":
			if err := checkSchemaArray(item, check, ignored); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkSchemaArray(array map[string]any, check func(string) error, ignored []string) error {
	item, err := openapi.ReadItems(array)
	if err != nil {
		return err
	}
	t, err := openapi.ReadType(item)
	if err != nil {
		return err
	}
	switch t {
	case "object":
		return checkSchemaObject(item, check, ignored)
	case "array":
		return checkSchemaArray(item, check, ignored)
	}
	return nil
}

func conditionalCheck(key string, check func(string) error, ignored []string) error {
	if slices.Contains(ignored, key) {
		return nil
	}
	return check(key)
}
