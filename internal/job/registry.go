package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// HandlerFunc executes one job attempt from its raw JSON payload. A nil
// return marks the attempt successful; any error counts as a handler failure
// and triggers the retry policy.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// ExhaustedFunc is notified when a job of the definition's type is marked
// failed permanently. It runs best-effort after the job's terminal status is
// stored; implementations use it to propagate the failure into their own
// domain records.
type ExhaustedFunc func(ctx context.Context, payload json.RawMessage, cause error)

// Definition binds a job type tag to its typed payload and handler. The
// scheduler dispatches jobs polymorphically by type, so every type submitted
// must have a definition registered before the scheduler starts.
type Definition[T any] struct {
	// Type is the tag jobs of this kind are submitted with.
	Type string

	// Handle executes one attempt with the decoded payload.
	Handle func(ctx context.Context, payload T) error

	// OnExhausted, if set, is called once when a job of this type fails
	// permanently, with the decoded payload and the final cause.
	OnExhausted func(ctx context.Context, payload T, cause error)
}

// handlerEntry is the type-erased form a Definition is stored as.
type handlerEntry struct {
	run       HandlerFunc
	exhausted ExhaustedFunc
}

// Registry maps job type tags to their handlers. It is safe for concurrent
// use; registration normally happens during startup, before Start.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]handlerEntry
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]handlerEntry),
	}
}

// Register adds a raw handler for a job type, replacing any existing one.
// Most callers should use RegisterDefinition instead, which decodes the
// payload into its typed form before invoking the handler.
func (r *Registry) Register(jobType string, handler HandlerFunc) error {
	if jobType == "" {
		return ErrEmptyJobType
	}
	if handler == nil {
		return fmt.Errorf("handler for job type %q cannot be nil", jobType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = handlerEntry{run: handler}
	return nil
}

// RegisterDefinition registers a typed job definition, wrapping its handler
// so the raw JSON payload is decoded into T before each attempt. A payload
// that does not decode is a handler failure like any other: it consumes an
// attempt and follows the retry policy.
//
// This is a package-level generic function because Go does not allow generic
// methods on non-generic receiver types.
func RegisterDefinition[T any](r *Registry, def Definition[T]) error {
	if def.Type == "" {
		return ErrEmptyJobType
	}
	if def.Handle == nil {
		return fmt.Errorf("definition for job type %q has no handler", def.Type)
	}

	entry := handlerEntry{
		run: func(ctx context.Context, payload json.RawMessage) error {
			var decoded T
			if err := json.Unmarshal(payload, &decoded); err != nil {
				return fmt.Errorf("failed to decode %s payload: %w", def.Type, err)
			}
			return def.Handle(ctx, decoded)
		},
	}

	if def.OnExhausted != nil {
		onExhausted := def.OnExhausted
		entry.exhausted = func(ctx context.Context, payload json.RawMessage, cause error) {
			var decoded T
			if err := json.Unmarshal(payload, &decoded); err != nil {
				// Nothing useful to hand the callback without a payload.
				return
			}
			onExhausted(ctx, decoded, cause)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[def.Type] = entry
	return nil
}

// Get returns the handler for a job type and whether one is registered.
func (r *Registry) Get(jobType string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.handlers[jobType]
	return entry.run, ok
}

// lookup returns the full entry, including the exhaustion callback.
func (r *Registry) lookup(jobType string) (handlerEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.handlers[jobType]
	return entry, ok
}

// Types returns the registered job types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
