// Package openapi holds schema-reading utilities. It is deliberately not a
// full OpenAPI parser; it applies just enough of the specification's rules to
// fail with a useful error when handed an incorrect schema.
package openapi

import (
	"slices"
)

// SupportedTypes lists the schema item types conformance checks understand.
func SupportedTypes() []string {
	return []string{"string", "boolean", "integer", "number", "file", "object", "array"}
}

// ReadItems accesses the `items` attribute of an array schema.
// `items` must be present if type is array, and must itself be a schema object.
func ReadItems(array map[string]any) (map[string]any, error) {
	v, ok := array["items"]
	if !ok {
		return nil, newSchemaErrorf(
			"Array is missing an `items` attribute.\n\nArray schema: %v", array,
		)
	}
	items, ok := v.(map[string]any)
	if !ok {
		return nil, newSchemaErrorf(
			"Array `items` attribute is not a schema object.\n\nArray schema: %v", array,
		)
	}
	return items, nil
}

// ReadType accesses the `type` attribute of a schema item. The value must be
// a single supported string; an array of types or a null type is an error.
func ReadType(item any) (string, error) {
	m, ok := item.(map[string]any)
	if !ok || m == nil {
		return "", newSchemaErrorf(
			"Schema item has an invalid `type` attribute. "+
				"The type should be a single string.\n\nSchema item: %v", item,
		)
	}
	t, ok := m["type"].(string)
	if !ok || t == "" {
		return "", newSchemaErrorf(
			"Schema item has an invalid `type` attribute. "+
				"The type should be a single string.\n\nSchema item: %v", item,
		)
	}
	if !slices.Contains(SupportedTypes(), t) {
		return "", newSchemaErrorf(
			"Schema item has an invalid `type` attribute. "+
				"The type `%s` is not supported.\n\nSchema item: %v", t, item,
		)
	}
	return t, nil
}

// ReadAdditionalProperties accesses the `additionalProperties` attribute of a
// schema object.
func ReadAdditionalProperties(schemaObject map[string]any) (map[string]any, error) {
	v, ok := schemaObject["additionalProperties"]
	if !ok {
		return nil, newSchemaErrorf(
			"Object is missing a `additionalProperties` attribute.\n\nObject schema: %v",
			schemaObject,
		)
	}
	ap, ok := v.(map[string]any)
	if !ok {
		return nil, newSchemaErrorf(
			"Object `additionalProperties` attribute is not a schema object.\n\nObject schema: %v",
			schemaObject,
		)
	}
	return ap, nil
}

// ReadProperties accesses the `properties` attribute of a schema object.
// An object documented with `additionalProperties` instead is returned under
// the empty key, so callers can iterate both shapes the same way.
func ReadProperties(schemaObject map[string]any) (map[string]any, error) {
	v, ok := schemaObject["properties"]
	if !ok {
		if _, ok := schemaObject["additionalProperties"]; ok {
			ap, err := ReadAdditionalProperties(schemaObject)
			if err != nil {
				return nil, err
			}
			return map[string]any{"": ap}, nil
		}
		return nil, newSchemaErrorf(
			"Object is missing a `properties` attribute.\n\nObject schema: %v", schemaObject,
		)
	}
	properties, ok := v.(map[string]any)
	if !ok {
		return nil, newSchemaErrorf(
			"Object `properties` attribute is not an object.\n\nObject schema: %v", schemaObject,
		)
	}
	return properties, nil
}

// IsNullable checks whether a schema item allows null values. OpenAPI 3 spells
// this `nullable: true`; Swagger 2 documents emitted by common generators use
// the vendored `x-nullable` extension, sometimes with a string "true".
func IsNullable(item any) bool {
	m, ok := item.(map[string]any)
	if !ok || m == nil {
		return false
	}
	for _, key := range []string{"nullable", "x-nullable"} {
		switch v := m[key].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if v == "true" {
				return true
			}
		}
	}
	return false
}

// Index indexes a schema by a string key, with an optional hint appended to
// the error when the key is not documented.
func Index(schema map[string]any, key, errorAddon string) (map[string]any, error) {
	v, ok := schema[key]
	if !ok {
		return nil, newDocumentationErrorf(
			"Failed indexing schema.\n\nError: Unsuccessfully tried to index "+
				"the OpenAPI schema by `%s`.%s", key, errorAddon,
		)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, newDocumentationErrorf(
			"Failed indexing schema.\n\nError: The schema value at `%s` is not an object.%s",
			key, errorAddon,
		)
	}
	return m, nil
}
