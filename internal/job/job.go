package job

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a job.
type Status string

// Possible job status values. Completed and failed are terminal: a job in
// either state is never dispatched again.
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"

	// StatusNotFound is a sentinel status used only in JobView results for
	// identifiers the store has never seen. It is not a valid stored status.
	StatusNotFound Status = "not_found"
)

// Job represents one unit of asynchronous work tracked by the scheduler.
// The payload is the JSON encoding of the strongly-typed payload struct
// registered for the job's type.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      Status          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	LastError   string          `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// New creates a queued Job with zero attempts.
// Returns an error if validation fails.
func New(id uuid.UUID, jobType string, payload json.RawMessage, maxAttempts int) (*Job, error) {
	now := time.Now().UTC()
	j := &Job{
		ID:          id,
		Type:        jobType,
		Payload:     payload,
		Status:      StatusQueued,
		Attempts:    0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := j.Validate(); err != nil {
		return nil, err
	}

	return j, nil
}

// Validate checks if the Job has valid data.
// Returns an error if any field fails validation.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.Type == "" {
		return ErrEmptyJobType
	}

	if j.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	if !isValidStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	return nil
}

// Terminal reports whether the job has reached a terminal state.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// isValidStatus checks if the given status is a valid stored Status.
// StatusNotFound is deliberately excluded: it never appears on a Job record.
func isValidStatus(status Status) bool {
	switch status {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// JobView is the read-only snapshot returned by status queries. Reads are
// point-in-time: a view taken while the scheduler mutates the job reflects
// one consistent state, never a torn one.
type JobView struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Status      Status    `json:"status"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	LastError   string    `json:"last_error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// View returns a snapshot of the job's current state.
func (j *Job) View() JobView {
	return JobView{
		ID:          j.ID,
		Type:        j.Type,
		Status:      j.Status,
		Attempts:    j.Attempts,
		MaxAttempts: j.MaxAttempts,
		LastError:   j.LastError,
		CreatedAt:   j.CreatedAt,
	}
}

// NotFoundView returns the sentinel view used for status queries on unknown
// identifiers. Status queries never treat an unknown id as an error.
func NotFoundView(id uuid.UUID) JobView {
	return JobView{
		ID:     id,
		Status: StatusNotFound,
	}
}
