package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a failure for machine-readable reporting. The values
// are the error_type strings written into reports and API responses.
type ErrorKind string

const (
	ErrorKindValidation    ErrorKind = "validation_error"
	ErrorKindTimeout       ErrorKind = "timeout_error"
	ErrorKindNetwork       ErrorKind = "network_error"
	ErrorKindScrapeFailed  ErrorKind = "scraping_failed"
	ErrorKindEmptyResponse ErrorKind = "empty_response_error"
	ErrorKindUnexpected    ErrorKind = "unexpected_error"
	ErrorKindParsing       ErrorKind = "parsing_error"
)

// StageError wraps a collaborator failure with the classification, stage name
// and elapsed time the report layer needs. Fetch and extraction errors abort
// only the current application's pipeline; validation errors fail fast before
// any network call.
type StageError struct {
	Kind    ErrorKind
	Stage   string
	Message string
	Elapsed time.Duration
	Err     error
}

func (e *StageError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return e.Message
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError builds a classified stage failure wrapping err.
func NewStageError(kind ErrorKind, stage, message string, elapsed time.Duration, err error) *StageError {
	return &StageError{Kind: kind, Stage: stage, Message: message, Elapsed: elapsed, Err: err}
}

// NewValidationError classifies malformed input before any network call.
func NewValidationError(message string) *StageError {
	return &StageError{Kind: ErrorKindValidation, Message: message}
}

// KindOf extracts the classification from err, defaulting to
// unexpected_error for plain errors.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ErrorKindUnexpected
}
