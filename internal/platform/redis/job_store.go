// Package redis implements job.Store using Redis for deployments that
// want queue state to survive restarts without a relational database.
// Each job is stored as a Hash and tracked in a per-status Sorted Set
// scored by creation time, so status scans come back oldest first.
//
// Usage:
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	s := redis.NewJobStore(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/precishq/precis-api/internal/job"
)

// Compile-time interface check.
var _ job.Store = (*JobStore)(nil)

// Option configures the JobStore.
type Option func(*JobStore)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *JobStore) { s.logger = l }
}

// JobStore implements job.Store backed by Redis.
type JobStore struct {
	client goredis.Cmdable
	logger *slog.Logger
}

// NewJobStore creates a Redis-backed job store. The caller owns the
// Redis client lifecycle.
func NewJobStore(client goredis.Cmdable, opts ...Option) *JobStore {
	s := &JobStore{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ping verifies the Redis connection is alive.
func (s *JobStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Save stores the job as a Hash and adds it to its status set.
// Returns job.ErrDuplicateJob if a job with the same ID already exists.
func (s *JobStore) Save(ctx context.Context, j *job.Job) error {
	jID := j.ID.String()
	key := jobKey(jID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("precis/redis: save exists check: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", job.ErrDuplicateJob, j.ID)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, jobToMap(j))
	pipe.ZAdd(ctx, statusKey(j.Status), goredis.Z{Score: jobScore(j.CreatedAt), Member: jID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("precis/redis: save job: %w", err)
	}
	return nil
}

// Get retrieves a job by ID.
// Returns job.ErrJobNotFound if the job doesn't exist.
func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	vals, err := s.client.HGetAll(ctx, jobKey(id.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("precis/redis: get job: %w", err)
	}
	if len(vals) == 0 {
		return nil, job.ErrJobNotFound
	}
	return mapToJob(vals)
}

// Update persists changes to an existing job, moving it between status
// sets when the status changed.
// Returns job.ErrJobNotFound if the job doesn't exist.
func (s *JobStore) Update(ctx context.Context, j *job.Job) error {
	jID := j.ID.String()
	key := jobKey(jID)

	prev, err := s.client.HGet(ctx, key, "status").Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return job.ErrJobNotFound
		}
		return fmt.Errorf("precis/redis: update status lookup: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, jobToMap(j))
	if prev != string(j.Status) {
		pipe.ZRem(ctx, statusKey(job.Status(prev)), jID)
		pipe.ZAdd(ctx, statusKey(j.Status), goredis.Z{Score: jobScore(j.CreatedAt), Member: jID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("precis/redis: update job: %w", err)
	}
	return nil
}

// ListByStatus returns all jobs in the given status, oldest first.
func (s *JobStore) ListByStatus(ctx context.Context, status job.Status) ([]*job.Job, error) {
	ids, err := s.client.ZRange(ctx, statusKey(status), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("precis/redis: list jobs zrange: %w", err)
	}

	jobs := make([]*job.Job, 0, len(ids))
	for _, jID := range ids {
		vals, err := s.client.HGetAll(ctx, jobKey(jID)).Result()
		if err != nil {
			return nil, fmt.Errorf("precis/redis: list jobs: %w", err)
		}
		if len(vals) == 0 {
			// The status set can briefly reference a hash that was
			// deleted out of band. Skip it.
			s.logger.Warn("job in status set has no hash",
				slog.String("job_id", jID),
				slog.String("status", string(status)))
			continue
		}

		j, mErr := mapToJob(vals)
		if mErr != nil {
			s.logger.Warn("skipping unparsable job",
				slog.String("job_id", jID),
				slog.String("error", mErr.Error()))
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// jobScore orders status sets by creation time so scans are FIFO.
func jobScore(createdAt time.Time) float64 {
	return float64(createdAt.UnixMilli())
}

func jobToMap(j *job.Job) map[string]interface{} {
	return map[string]interface{}{
		"id":           j.ID.String(),
		"type":         j.Type,
		"payload":      string(j.Payload),
		"status":       string(j.Status),
		"attempts":     strconv.Itoa(j.Attempts),
		"max_attempts": strconv.Itoa(j.MaxAttempts),
		"last_error":   j.LastError,
		"created_at":   j.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":   j.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func mapToJob(m map[string]string) (*job.Job, error) {
	id, err := uuid.Parse(m["id"])
	if err != nil {
		return nil, fmt.Errorf("precis/redis: parse job id: %w", err)
	}

	attempts, _ := strconv.Atoi(m["attempts"])
	maxAttempts, _ := strconv.Atoi(m["max_attempts"])
	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"])
	updatedAt, _ := time.Parse(time.RFC3339Nano, m["updated_at"])

	return &job.Job{
		ID:          id,
		Type:        m["type"],
		Payload:     json.RawMessage(m["payload"]),
		Status:      job.Status(m["status"]),
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
		LastError:   m["last_error"],
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}
