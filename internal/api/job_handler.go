package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/precishq/precis-api/internal/api/shared"
	"github.com/precishq/precis-api/internal/job"
	"github.com/precishq/precis-api/internal/platform/logger"
)

// JobStatusProvider abstracts the read side of the job scheduler. Defined
// here because the handler is the consumer.
type JobStatusProvider interface {
	// GetStatus returns a point-in-time view of the job. Unknown IDs yield
	// a view with status "not_found" rather than an error.
	GetStatus(ctx context.Context, id uuid.UUID) (job.JobView, error)
}

// JobHandler handles job status HTTP requests
type JobHandler struct {
	jobs   JobStatusProvider
	logger *slog.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobs JobStatusProvider, logger *slog.Logger) *JobHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for JobHandler")
	}

	return &JobHandler{
		jobs:   jobs,
		logger: logger.With(slog.String("component", "job_handler")),
	}
}

// GetJobStatus handles GET /jobs/{id} requests. The endpoint always answers
// 200 for well-formed IDs: unknown jobs come back with status "not_found"
// so polling clients can treat the response as data rather than an error.
func (h *JobHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	_, jobID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	view, err := h.jobs.GetStatus(r.Context(), jobID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to get job status", err)
		return
	}

	log.Debug("job status queried",
		slog.String("job_id", jobID.String()),
		slog.String("status", string(view.Status)))

	shared.RespondWithJSON(w, r, http.StatusOK, jobViewToResponse(view))
}
