// Package validation provides field-level validation errors surfaced as
// structured 400 responses.
package validation

import (
	"sort"
	"strings"
)

// Error collects per-field validation messages for one request.
type Error struct {
	Fields map[string]string
}

// NewError returns an empty validation error collector.
func NewError() *Error {
	return &Error{Fields: make(map[string]string)}
}

// Add records a message for the given field. The first message per field wins.
func (e *Error) Add(field, message string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// Err returns the collector itself when any field failed, nil otherwise.
func (e *Error) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(e.Fields[f])
	}
	return b.String()
}
