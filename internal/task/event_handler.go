package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/precishq/precis-api/internal/events"
)

// JobSubmitter is the slice of the scheduler the event handler needs.
type JobSubmitter interface {
	// Submit enqueues a new job with the given ID, type, and payload.
	Submit(ctx context.Context, id uuid.UUID, jobType string, payload any) error
}

// JobRequestEventHandler implements the events.EventHandler interface,
// turning job request events emitted by services into scheduler submissions.
// The indirection lets the note service request background work without
// depending on the job package.
type JobRequestEventHandler struct {
	submitter JobSubmitter
	logger    *slog.Logger
}

// NewJobRequestEventHandler creates an event handler that submits requested
// jobs to the given submitter.
func NewJobRequestEventHandler(submitter JobSubmitter, logger *slog.Logger) *JobRequestEventHandler {
	return &JobRequestEventHandler{
		submitter: submitter,
		logger:    logger.With("component", "job_request_event_handler"),
	}
}

// HandleEvent submits the requested job to the scheduler. Events with a type
// no handler is registered for are ignored rather than failed, so emitting
// services stay decoupled from the set of known job types.
func (h *JobRequestEventHandler) HandleEvent(ctx context.Context, event *events.JobRequestEvent) error {
	log := h.logger.With("job_id", event.JobID, "event_type", event.Type)

	if event.Type != JobTypeSummarizeNote {
		log.Debug("ignoring event with unsupported type")
		return nil
	}

	if err := h.submitter.Submit(ctx, event.JobID, event.Type, event.Payload); err != nil {
		log.Error("failed to submit job", "error", err)
		return fmt.Errorf("failed to submit job: %w", err)
	}

	log.Info("job submitted from event")
	return nil
}

// Ensure JobRequestEventHandler implements events.EventHandler
var _ events.EventHandler = (*JobRequestEventHandler)(nil)
