package job

import (
	"context"

	"github.com/google/uuid"
)

// Store persists job records. Jobs are never deleted: completed and failed
// records remain queryable for status reads.
//
// Implementations must return defensive copies so callers can mutate results
// without racing the scheduler, and must apply Update atomically so status
// reads always observe one consistent record.
type Store interface {
	// Save inserts a new job. Returns ErrDuplicateJob if a job with the
	// same ID already exists; the stored job is left untouched.
	Save(ctx context.Context, j *Job) error

	// Get retrieves a job by ID.
	// Returns ErrJobNotFound if the job doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*Job, error)

	// Update replaces the stored record for an existing job.
	// Returns ErrJobNotFound if the job doesn't exist.
	Update(ctx context.Context, j *Job) error

	// ListByStatus returns all jobs with the given status, ordered by
	// creation time, oldest first. The scheduler relies on this ordering to
	// dispatch queued jobs first-in, first-out.
	ListByStatus(ctx context.Context, status Status) ([]*Job, error)
}
