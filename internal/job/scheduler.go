package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SchedulerConfig holds configuration for the polling scheduler.
type SchedulerConfig struct {
	// ScanInterval is how long the loop sleeps between scans of the queue.
	ScanInterval time.Duration

	// HandlerTimeout bounds a single handler invocation. A handler that
	// overruns it sees its context cancelled and the attempt is counted as
	// a failure.
	HandlerTimeout time.Duration

	// MaxAttempts is the attempt limit stamped onto submitted jobs.
	MaxAttempts int
}

// DefaultSchedulerConfig returns the default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		ScanInterval:   5 * time.Second,
		HandlerTimeout: 60 * time.Second,
		MaxAttempts:    3,
	}
}

// Scheduler owns the background polling loop that drives queued jobs through
// their handlers. Jobs are dispatched sequentially in creation order, so at
// most one attempt is in flight at any time.
type Scheduler struct {
	store    Store
	registry *Registry
	config   SchedulerConfig
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with the given store, handler registry,
// and configuration. Zero config fields fall back to the defaults.
func NewScheduler(store Store, registry *Registry, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	defaults := DefaultSchedulerConfig()
	if config.ScanInterval <= 0 {
		config.ScanInterval = defaults.ScanInterval
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = defaults.HandlerTimeout
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		store:    store,
		registry: registry,
		config:   config,
		logger:   logger.With("component", "job_scheduler"),
	}
}

// Submit encodes the payload and enqueues a new job with the given ID and
// type. The payload is not validated against the handler here; a payload the
// handler cannot use surfaces later as a handler failure.
//
// Returns ErrDuplicateJob if a job with the same ID was already submitted.
func (s *Scheduler) Submit(ctx context.Context, id uuid.UUID, jobType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload for job %s: %w", id, err)
	}

	j, err := New(id, jobType, raw, s.config.MaxAttempts)
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, j); err != nil {
		if errors.Is(err, ErrDuplicateJob) {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, id)
		}
		return fmt.Errorf("failed to save job %s: %w", id, err)
	}

	s.logger.Debug("job submitted", "job_id", id.String(), "job_type", jobType)
	return nil
}

// GetStatus returns a snapshot of the job's current state. An unknown ID is
// not an error: the returned view carries StatusNotFound.
func (s *Scheduler) GetStatus(ctx context.Context, id uuid.UUID) (JobView, error) {
	j, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return NotFoundView(id), nil
		}
		return JobView{}, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	return j.View(), nil
}

// Start launches the polling loop in a background goroutine. Calling Start
// on a running scheduler has no effect. Jobs left in the processing state by
// a previous run are requeued before the loop begins.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Debug("scheduler already running")
		return nil
	}

	if err := s.recoverStuckJobs(context.Background()); err != nil {
		return fmt.Errorf("failed to recover in-flight jobs: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("scheduler started",
		"scan_interval", s.config.ScanInterval.String(),
		"handler_timeout", s.config.HandlerTimeout.String(),
		"max_attempts", s.config.MaxAttempts)
	return nil
}

// Stop signals the loop to exit and blocks until it has finished its current
// scan. In-flight handler invocations are not cancelled; they run to their
// own timeout. Stopping a scheduler that is not running is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.running {
		s.running = false
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Running reports whether the polling loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// run is the polling loop. Each iteration scans the queue once and then
// sleeps for the scan interval; a stop signal is honored during the sleep,
// never mid-scan.
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		s.scan()

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-time.After(s.config.ScanInterval):
		}
	}
}

// scan snapshots the queued jobs and processes each in creation order.
// Errors raised by the scan machinery itself are logged and never terminate
// the loop; handler errors are handled per job by the retry policy.
func (s *Scheduler) scan() {
	ctx := context.Background()

	queued, err := s.store.ListByStatus(ctx, StatusQueued)
	if err != nil {
		s.logger.Error("scan failed", "error", &ScanError{Err: err})
		return
	}

	for _, j := range queued {
		if err := s.processJob(ctx, j); err != nil {
			s.logger.Error("scan item failed",
				"job_id", j.ID.String(),
				"job_type", j.Type,
				"error", &ScanError{Err: err})
		}
	}
}

// processJob runs one attempt of a single queued job. Errors returned here
// come from the store, not from handlers; the job keeps its queued status and
// is picked up again on the next scan.
func (s *Scheduler) processJob(ctx context.Context, j *Job) error {
	log := s.logger.With("job_id", j.ID.String(), "job_type", j.Type)

	// A queued job that already consumed its attempt limit is closed out
	// without another dispatch. This happens when a previous process stopped
	// between consuming the final attempt and recording its outcome.
	if j.Attempts >= j.MaxAttempts {
		cause := error(ErrAttemptsExhausted)
		if j.LastError != "" {
			cause = fmt.Errorf("%w: %s", ErrAttemptsExhausted, j.LastError)
		}
		return s.failJob(ctx, log, j, cause)
	}

	j.Status = StatusProcessing
	j.Attempts++
	j.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, j); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	log.Info("job attempt started", "attempt", j.Attempts, "max_attempts", j.MaxAttempts)

	if err := s.dispatch(j); err != nil {
		handlerErr := NewHandlerError(j, err)
		j.LastError = err.Error()

		if j.Attempts >= j.MaxAttempts {
			return s.failJob(ctx, log, j, handlerErr)
		}

		log.Warn("job attempt failed, will retry",
			"error", err,
			"attempt", j.Attempts,
			"max_attempts", j.MaxAttempts)
		j.Status = StatusQueued
		j.UpdatedAt = time.Now().UTC()
		if err := s.store.Update(ctx, j); err != nil {
			return fmt.Errorf("failed to requeue job: %w", err)
		}
		return nil
	}

	j.Status = StatusCompleted
	j.LastError = ""
	j.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, j); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	log.Info("job completed", "attempts", j.Attempts)
	return nil
}

// dispatch looks up the handler for the job's type and invokes it under the
// configured timeout. The handler context is independent of the loop context
// so that Stop never cancels an in-flight invocation.
func (s *Scheduler) dispatch(j *Job) error {
	entry, ok := s.registry.lookup(j.Type)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, j.Type)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.HandlerTimeout)
	defer cancel()
	return entry.run(ctx, j.Payload)
}

// failJob records the job's terminal failure and notifies the type's
// exhaustion callback, if one is registered.
func (s *Scheduler) failJob(ctx context.Context, log *slog.Logger, j *Job, cause error) error {
	j.Status = StatusFailed
	if j.LastError == "" {
		j.LastError = cause.Error()
	}
	j.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, j); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	log.Error("job failed permanently", "attempts", j.Attempts, "error", cause)
	s.notifyExhausted(j, cause)
	return nil
}

// notifyExhausted invokes the registered exhaustion callback for the job's
// type. The callback runs best-effort after the terminal status is stored.
func (s *Scheduler) notifyExhausted(j *Job, cause error) {
	entry, ok := s.registry.lookup(j.Type)
	if !ok || entry.exhausted == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.HandlerTimeout)
	defer cancel()
	entry.exhausted(ctx, j.Payload, cause)
}

// recoverStuckJobs requeues jobs a previous run left in the processing
// state. Their attempt counts are preserved, so the attempt limit still
// holds across restarts.
func (s *Scheduler) recoverStuckJobs(ctx context.Context) error {
	stuck, err := s.store.ListByStatus(ctx, StatusProcessing)
	if err != nil {
		return err
	}

	for _, j := range stuck {
		j.Status = StatusQueued
		j.UpdatedAt = time.Now().UTC()
		if err := s.store.Update(ctx, j); err != nil {
			return err
		}
		s.logger.Warn("requeued job left processing by a previous run",
			"job_id", j.ID.String(),
			"job_type", j.Type,
			"attempts", j.Attempts)
	}
	return nil
}
