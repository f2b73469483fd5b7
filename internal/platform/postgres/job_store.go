package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/precishq/precis-api/internal/job"
	"github.com/precishq/precis-api/internal/platform/logger"
	"github.com/precishq/precis-api/internal/store"
)

// PostgresJobStore implements the job.Store interface using PostgreSQL,
// giving the scheduler durable state that survives restarts. The payload
// column is JSONB holding the registered payload struct's encoding.
type PostgresJobStore struct {
	db store.DBTX
}

// NewPostgresJobStore creates a new PostgreSQL implementation of the job.Store interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
func NewPostgresJobStore(db store.DBTX) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}

	return &PostgresJobStore{db: db}
}

// Ensure PostgresJobStore implements job.Store interface
var _ job.Store = (*PostgresJobStore)(nil)

// Save implements job.Store.Save
// Returns job.ErrDuplicateJob if a job with the same ID already exists.
func (s *PostgresJobStore) Save(ctx context.Context, j *job.Job) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO jobs (id, type, payload, status, attempts, max_attempts, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		j.ID,
		j.Type,
		// Bound as string so the driver sends json text, not bytea.
		string(j.Payload),
		j.Status,
		j.Attempts,
		j.MaxAttempts,
		j.LastError,
		j.CreatedAt,
		j.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate job submission rejected",
				slog.String("job_id", j.ID.String()))
			return fmt.Errorf("%w: %s", job.ErrDuplicateJob, j.ID)
		}
		log.Error("failed to save job",
			slog.String("job_id", j.ID.String()),
			slog.String("job_type", j.Type),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save job: %w", err)
	}

	return nil
}

// Get implements job.Store.Get
// Returns job.ErrJobNotFound if the job doesn't exist.
func (s *PostgresJobStore) Get(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, type, payload, status, attempts, max_attempts, last_error, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`

	j, err := scanJobRow(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, job.ErrJobNotFound
		}
		log.Error("failed to get job",
			slog.String("job_id", id.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	return j, nil
}

// Update implements job.Store.Update
// Returns job.ErrJobNotFound if the job doesn't exist.
func (s *PostgresJobStore) Update(ctx context.Context, j *job.Job) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE jobs
		SET status = $1, attempts = $2, last_error = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		j.Status,
		j.Attempts,
		j.LastError,
		j.UpdatedAt,
		j.ID,
	)
	if err != nil {
		log.Error("failed to update job",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update job: %w", err)
	}

	if err := CheckRowsAffected(result, "job"); err != nil {
		return job.ErrJobNotFound
	}

	return nil
}

// ListByStatus implements job.Store.ListByStatus
// Jobs come back oldest first so the scheduler dispatches them in submission order.
func (s *PostgresJobStore) ListByStatus(ctx context.Context, status job.Status) ([]*job.Job, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, type, payload, status, attempts, max_attempts, last_error, created_at, updated_at
		FROM jobs
		WHERE status = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		log.Error("failed to query jobs by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query jobs by status: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var jobs []*job.Job
	for rows.Next() {
		var j job.Job
		var status string
		var payload []byte
		var lastError sql.NullString

		err := rows.Scan(
			&j.ID,
			&j.Type,
			&payload,
			&status,
			&j.Attempts,
			&j.MaxAttempts,
			&lastError,
			&j.CreatedAt,
			&j.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan job row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}

		j.Payload = payload
		j.Status = job.Status(status)
		j.LastError = lastError.String
		jobs = append(jobs, &j)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating job rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

// scanJobRow reads one job row. The caller handles sql.ErrNoRows.
func scanJobRow(row *sql.Row) (*job.Job, error) {
	var j job.Job
	var status string
	var payload []byte
	var lastError sql.NullString

	err := row.Scan(
		&j.ID,
		&j.Type,
		&payload,
		&status,
		&j.Attempts,
		&j.MaxAttempts,
		&lastError,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	j.Payload = payload
	j.Status = job.Status(status)
	j.LastError = lastError.String
	return &j, nil
}
