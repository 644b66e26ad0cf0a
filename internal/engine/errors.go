package engine

import (
	"errors"
	"fmt"
)

// LoadError describes a load that failed and was recorded in the container.
//
// The container only keeps the message; the controller returns the full
// LoadError to callers that want to act on it (the CLI maps it to an exit
// code).
type LoadError struct {
	// Code identifies the error category.
	Code LoadErrorCode

	// Message is the text stored in State.Error.
	Message string

	// RequestID correlates the failure with source logs.
	RequestID string

	// Page is the page that failed. During backfill this may be lower than
	// the requested page.
	Page int

	// Err is the underlying source error.
	Err error
}

// LoadErrorCode categorizes load failures.
type LoadErrorCode string

const (
	// ErrCodeSource indicates the source rejected or could not serve a single-page load.
	ErrCodeSource LoadErrorCode = "SOURCE_FAILED"

	// ErrCodeBackfill indicates a page of a backfill chain failed; the chain stopped there.
	ErrCodeBackfill LoadErrorCode = "BACKFILL_FAILED"
)

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (page=%d, request=%s)", e.Code, e.Message, e.Page, e.RequestID)
	}
	return fmt.Sprintf("%s: %s (page=%d)", e.Code, e.Message, e.Page)
}

// Unwrap returns the source error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsBackfillError returns true if err is a failed backfill chain.
// Uses errors.As to handle wrapped errors.
func IsBackfillError(err error) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code == ErrCodeBackfill
	}
	return false
}

// IsLoadError returns true if err is any LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// errorMessage is the text a failure leaves in State.Error. A failure with
// no message still has to mark the state as failed.
func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to load team members"
}
