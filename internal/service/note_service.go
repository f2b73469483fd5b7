package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/precishq/precis-api/internal/domain"
	"github.com/precishq/precis-api/internal/events"
	"github.com/precishq/precis-api/internal/store"
	"github.com/precishq/precis-api/internal/task"
)

// NoteService provides note-related operations
type NoteService interface {
	// CreateNoteAndEnqueueJob creates a new note and requests its background
	// summarization. The returned UUID is the job identifier the client can
	// poll for progress.
	CreateNoteAndEnqueueJob(ctx context.Context, userID uuid.UUID, text string) (*domain.Note, uuid.UUID, error)

	// GetNote retrieves a note by its ID, enforcing that only the owner or
	// an admin may read it.
	GetNote(ctx context.Context, noteID, requesterID uuid.UUID, isAdmin bool) (*domain.Note, error)

	// ListNotesForUser retrieves the requester's notes, newest first.
	ListNotesForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Note, error)

	// ListAllNotes retrieves notes across all users. Admin only; the API
	// layer enforces the role.
	ListAllNotes(ctx context.Context, limit, offset int) ([]*domain.Note, error)
}

// NoteServiceError wraps errors from the note service with context.
type NoteServiceError struct {
	// Operation is the operation that failed (e.g., "create_note", "get_note")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for NoteServiceError.
func (e *NoteServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("note service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("note service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *NoteServiceError) Unwrap() error {
	return e.Err
}

// NewNoteServiceError creates a new NoteServiceError.
// It returns known sentinel errors directly without wrapping.
func NewNoteServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrNoteNotFound) {
		return ErrNoteNotFound
	}

	// Store-level sentinels map to their service-level counterparts.
	if errors.Is(err, store.ErrNoteNotFound) {
		return ErrNoteNotFound
	}

	return &NoteServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// noteServiceImpl implements the NoteService interface
type noteServiceImpl struct {
	db           *sql.DB
	noteStore    store.NoteStore
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

// NewNoteService creates a new NoteService.
// It returns an error if any of the required dependencies are nil.
func NewNoteService(
	db *sql.DB,
	noteStore store.NoteStore,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (NoteService, error) {
	if db == nil {
		return nil, &NoteServiceError{
			Operation: "create_service",
			Message:   "db cannot be nil",
		}
	}
	if noteStore == nil {
		return nil, &NoteServiceError{
			Operation: "create_service",
			Message:   "noteStore cannot be nil",
		}
	}
	if eventEmitter == nil {
		return nil, &NoteServiceError{
			Operation: "create_service",
			Message:   "eventEmitter cannot be nil",
		}
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &noteServiceImpl{
		db:           db,
		noteStore:    noteStore,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "note_service"),
	}, nil
}

// CreateNoteAndEnqueueJob creates a new note with queued status and emits a
// job request event for its summarization. The note insert and the event
// emission share one transaction: if the job cannot be enqueued the note is
// rolled back, so no note is left waiting on a job that was never created.
func (s *noteServiceImpl) CreateNoteAndEnqueueJob(
	ctx context.Context,
	userID uuid.UUID,
	text string,
) (*domain.Note, uuid.UUID, error) {
	note, err := domain.NewNote(userID, text)
	if err != nil {
		s.logger.Error("failed to create note object",
			"error", err,
			"user_id", userID)
		return nil, uuid.Nil, NewNoteServiceError("create_note", "failed to create note object", err)
	}

	// The job ID is minted here, before the job exists, so the API can
	// return it in the same response that accepts the note.
	jobID := uuid.New()

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.noteStore.WithTx(tx)

		if err := txStore.Create(ctx, note); err != nil {
			s.logger.Error("failed to create note in transaction",
				"error", err,
				"user_id", userID,
				"note_id", note.ID)
			return NewNoteServiceError("create_note", "failed to save note to database", err)
		}

		payload := task.SummarizeNotePayload{
			NoteID:  note.ID,
			RawText: note.RawText,
		}

		event, err := events.NewJobRequestEvent(jobID, task.JobTypeSummarizeNote, payload)
		if err != nil {
			return NewNoteServiceError("create_note", "failed to create job request event", err)
		}

		if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
			s.logger.Error("failed to emit job request event",
				"error", err,
				"note_id", note.ID,
				"job_id", jobID)
			return NewNoteServiceError("create_note", "failed to enqueue summarization job", err)
		}

		return nil
	})

	if err != nil {
		// Error is already wrapped inside the transaction.
		return nil, uuid.Nil, err
	}

	s.logger.Info("note created and summarization job enqueued",
		"note_id", note.ID,
		"job_id", jobID,
		"user_id", userID)

	return note, jobID, nil
}

// GetNote retrieves a note by its ID, enforcing ownership.
func (s *noteServiceImpl) GetNote(
	ctx context.Context,
	noteID, requesterID uuid.UUID,
	isAdmin bool,
) (*domain.Note, error) {
	note, err := s.noteStore.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		s.logger.Error("failed to retrieve note",
			"error", err,
			"note_id", noteID)
		return nil, NewNoteServiceError("get_note", "failed to retrieve note", err)
	}

	if note.UserID != requesterID && !isAdmin {
		s.logger.Warn("denied access to foreign note",
			"note_id", noteID,
			"owner_id", note.UserID,
			"requester_id", requesterID)
		return nil, ErrNotOwned
	}

	return note, nil
}

// ListNotesForUser retrieves the requester's notes, newest first.
func (s *noteServiceImpl) ListNotesForUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Note, error) {
	notes, err := s.noteStore.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list notes for user",
			"error", err,
			"user_id", userID)
		return nil, NewNoteServiceError("list_notes", "failed to list notes", err)
	}
	return notes, nil
}

// ListAllNotes retrieves notes across all users for the admin surface.
func (s *noteServiceImpl) ListAllNotes(ctx context.Context, limit, offset int) ([]*domain.Note, error) {
	notes, err := s.noteStore.ListAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list all notes", "error", err)
		return nil, NewNoteServiceError("list_all_notes", "failed to list notes", err)
	}
	return notes, nil
}
