package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/precishq/precis-api/internal/domain"
)

// NoteStore defines the interface for note data persistence.
type NoteStore interface {
	// Create saves a new note to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Note if data is invalid.
	Create(ctx context.Context, note *domain.Note) error

	// GetByID retrieves a note by its unique ID.
	// Returns ErrNoteNotFound if the note does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)

	// UpdateStatus updates the status of an existing note.
	// Returns ErrNoteNotFound if the note does not exist.
	// Returns validation errors if the status is invalid.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NoteStatus) error

	// SaveSummary records the machine-generated summary for a note and marks
	// the note done in the same write.
	// Returns ErrNoteNotFound if the note does not exist.
	SaveSummary(ctx context.Context, id uuid.UUID, summary string) error

	// ListByUserID retrieves the notes owned by the given user, newest first.
	// Returns an empty slice if the user has no notes.
	// Can limit the number of results and paginate through offset.
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Note, error)

	// ListAll retrieves notes across all users, newest first. Intended for
	// the admin surface.
	// Can limit the number of results and paginate through offset.
	ListAll(ctx context.Context, limit, offset int) ([]*domain.Note, error)

	// WithTx returns a new NoteStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) NoteStore
}
