package job

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation backed by a map. It is
// the default backend and the one used throughout the scheduler tests.
type MemoryStore struct {
	mu    sync.RWMutex
	jobs  map[uuid.UUID]*Job
	order []uuid.UUID
}

// Ensure MemoryStore implements the Store interface.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[uuid.UUID]*Job),
	}
}

// copyJob clones a job including its payload bytes, so the stored record and
// the caller's record never share memory.
func copyJob(j *Job) *Job {
	cp := *j
	if j.Payload != nil {
		cp.Payload = append([]byte(nil), j.Payload...)
	}
	return &cp
}

// Save inserts a new job, rejecting duplicates by ID. The insertion order is
// recorded so ListByStatus can return jobs oldest first.
func (m *MemoryStore) Save(ctx context.Context, j *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[j.ID]; exists {
		return ErrDuplicateJob
	}

	m.jobs[j.ID] = copyJob(j)
	m.order = append(m.order, j.ID)
	return nil
}

// Get returns a copy of the job with the given ID.
func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}

	return copyJob(stored), nil
}

// Update replaces the stored record for an existing job.
func (m *MemoryStore) Update(ctx context.Context, j *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[j.ID]; !ok {
		return ErrJobNotFound
	}

	m.jobs[j.ID] = copyJob(j)
	return nil
}

// ListByStatus returns copies of all jobs with the given status in insertion
// order, which for jobs created at submit time is creation order.
func (m *MemoryStore) ListByStatus(ctx context.Context, status Status) ([]*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Job
	for _, id := range m.order {
		stored := m.jobs[id]
		if stored.Status != status {
			continue
		}
		result = append(result, copyJob(stored))
	}
	return result, nil
}

// Len returns the total number of stored jobs regardless of status.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}
