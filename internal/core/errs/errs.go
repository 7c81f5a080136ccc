package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	// ErrNotIndexed is returned when chat or extraction is attempted before
	// the item's index artifact exists.
	ErrNotIndexed = errors.New("index does not exist for this item")

	// ErrNotFound is returned when an item id does not resolve to a row.
	ErrNotFound = errors.New("item not found")

	// ErrUnauthorized is returned for missing or invalid bearer tokens.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError marks bad client input; handlers map it to a 400 with the
// message surfaced verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PipelineError wraps a failure inside the background pipeline. Jobs failing
// with a PipelineError are eligible for queue-level retry.
type PipelineError struct {
	Stage string // "extract", "fetch" or "index"
	Err   error
}

func (e *PipelineError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *PipelineError) Unwrap() error { return e.Err }

// Extraction wraps an unreadable or corrupt artifact error.
func Extraction(err error) error { return &PipelineError{Stage: "extract", Err: err} }

// Fetch wraps a network/HTTP failure while crawling.
func Fetch(err error) error { return &PipelineError{Stage: "fetch", Err: err} }

// IndexBuild wraps an embedding or index persistence failure.
func IndexBuild(err error) error { return &PipelineError{Stage: "index", Err: err} }
