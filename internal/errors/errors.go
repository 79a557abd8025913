// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by store lookups for repositories that do not exist.
var ErrNotFound = errors.New("repository not found")

// FetchError is returned when an upstream HTTP request answers with a
// non-success status.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// ParseError is returned when an LLM response cannot be decoded by any of
// the parse strategies.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse LLM response: %s", e.Reason)
}
