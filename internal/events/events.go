package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyJobID is returned when an event is created without a job identifier.
var ErrEmptyJobID = errors.New("event job ID cannot be empty")

// JobRequestEvent represents a request to enqueue a background job.
// It carries everything the scheduler needs without the emitting service
// depending on the job package directly.
type JobRequestEvent struct {
	// JobID is the identifier the job will be stored under. It is generated
	// by the emitting service before the job exists, so the API can hand it
	// to the client in the same response that accepts the work.
	JobID uuid.UUID `json:"job_id"`

	// Type indicates the job type that should be enqueued
	Type string `json:"type"`

	// Payload contains the job-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *JobRequestEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewJobRequestEvent creates a new JobRequestEvent for the given job ID, type
// and payload.
func NewJobRequestEvent(jobID uuid.UUID, eventType string, payload interface{}) (*JobRequestEvent, error) {
	if jobID == uuid.Nil {
		return nil, ErrEmptyJobID
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &JobRequestEvent{
		JobID:     jobID,
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *JobRequestEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *JobRequestEvent) error
}
