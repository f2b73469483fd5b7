package job

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Validation errors returned by New and Validate.
var (
	ErrEmptyJobID         = errors.New("job ID cannot be empty")
	ErrEmptyJobType       = errors.New("job type cannot be empty")
	ErrInvalidMaxAttempts = errors.New("job max attempts must be positive")
	ErrInvalidJobStatus   = errors.New("invalid job status")
)

// Store and scheduler errors.
var (
	// ErrDuplicateJob is returned by Submit and Store.Save when a job with
	// the same ID already exists. Submitting the same ID twice is a caller
	// bug, not a retry: the stored job is left untouched.
	ErrDuplicateJob = errors.New("job already exists")

	// ErrJobNotFound is returned by Store.Get and Store.Update for unknown
	// job IDs. GetStatus translates it into the not_found sentinel view
	// rather than surfacing it to callers.
	ErrJobNotFound = errors.New("job not found")

	// ErrNoHandler indicates a job whose type has no registered handler.
	// Dispatch treats it like any other handler failure, so the job consumes
	// attempts and eventually fails.
	ErrNoHandler = errors.New("no handler registered for job type")

	// ErrAttemptsExhausted is recorded as the cause when a job is marked
	// failed because it reached its attempt limit without a more specific
	// handler error.
	ErrAttemptsExhausted = errors.New("job attempts exhausted")
)

// HandlerError wraps an error returned by a job handler with the identity of
// the job that produced it.
type HandlerError struct {
	JobID   uuid.UUID
	JobType string
	Err     error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler for job %s (type %s) failed: %v", e.JobID, e.JobType, e.Err)
}

// Unwrap returns the underlying handler error for errors.Is/As chains.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// NewHandlerError creates a HandlerError for the given job and cause.
func NewHandlerError(j *Job, err error) *HandlerError {
	return &HandlerError{
		JobID:   j.ID,
		JobType: j.Type,
		Err:     err,
	}
}

// ScanError wraps an error raised by the scheduler's own scan machinery, as
// opposed to an error returned by a handler. The scheduler logs scan errors
// and continues; they never terminate the polling loop.
type ScanError struct {
	Err error
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	return fmt.Sprintf("scheduler scan failed: %v", e.Err)
}

// Unwrap returns the underlying scan error.
func (e *ScanError) Unwrap() error {
	return e.Err
}
