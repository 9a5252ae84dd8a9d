package openapi

import (
	"strconv"
	"strings"
)

// ResponseSchema locates the schema documented for a path, method, and status
// code. Swagger 2 documents carry it at `responses.<status>.schema`; OpenAPI 3
// documents nest it under `content.application/json.schema`.
func ResponseSchema(doc map[string]any, path, method string, status int) (map[string]any, error) {
	paths, err := Index(doc, "paths", "")
	if err != nil {
		return nil, err
	}
	pathItem, err := Index(paths, path, " Is the endpoint documented?")
	if err != nil {
		return nil, err
	}
	methodItem, err := Index(
		pathItem,
		strings.ToLower(method),
		" Is the method documented for this endpoint?",
	)
	if err != nil {
		return nil, err
	}
	responses, err := Index(methodItem, "responses", "")
	if err != nil {
		return nil, err
	}
	statusItem, err := Index(
		responses,
		strconv.Itoa(status),
		" Is the status code documented for this endpoint?",
	)
	if err != nil {
		return nil, err
	}

	if schema, ok := statusItem["schema"].(map[string]any); ok {
		return schema, nil
	}
	if content, ok := statusItem["content"].(map[string]any); ok {
		media, err := Index(content, "application/json", " Only JSON responses are checked.")
		if err != nil {
			return nil, err
		}
		if schema, ok := media["schema"].(map[string]any); ok {
			return schema, nil
		}
	}
	return nil, newDocumentationErrorf(
		"The response for `%s %s` (%d) is documented without a schema.", method, path, status,
	)
}
