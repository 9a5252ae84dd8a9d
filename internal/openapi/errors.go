package openapi

import "fmt"

// SchemaError signals a schema document that breaks the rules of the
// specification itself, as opposed to a response that disagrees with a
// well-formed schema.
type SchemaError struct {
	Message string
}

func (e SchemaError) Error() string {
	return e.Message
}

func newSchemaErrorf(format string, args ...any) SchemaError {
	return SchemaError{Message: fmt.Sprintf(format, args...)}
}

// DocumentationError signals that a well-formed schema does not document
// something a conformance check needs, e.g. a path or a response status.
type DocumentationError struct {
	Message string
}

func (e DocumentationError) Error() string {
	return e.Message
}

func newDocumentationErrorf(format string, args ...any) DocumentationError {
	return DocumentationError{Message: fmt.Sprintf(format, args...)}
}
