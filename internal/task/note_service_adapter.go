package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/precishq/precis-api/internal/domain"
	"github.com/precishq/precis-api/internal/store"
)

// NoteServiceAdapter implements NoteService over the persistence layer's
// NoteStore, keeping the handler decoupled from store details.
type NoteServiceAdapter struct {
	noteStore store.NoteStore
}

// NewNoteServiceAdapter creates an adapter backed by the given note store.
func NewNoteServiceAdapter(noteStore store.NoteStore) (*NoteServiceAdapter, error) {
	if noteStore == nil {
		return nil, ErrNilNoteService
	}
	return &NoteServiceAdapter{noteStore: noteStore}, nil
}

// UpdateNoteStatus updates a note's status. Writes against a note already in
// a terminal status are skipped: a job re-run after a crash (the scheduler
// requeues jobs left processing) must not drag a finished note back to
// processing.
func (a *NoteServiceAdapter) UpdateNoteStatus(ctx context.Context, noteID uuid.UUID, status domain.NoteStatus) error {
	note, err := a.noteStore.GetByID(ctx, noteID)
	if err != nil {
		return err
	}

	if domain.TerminalNoteStatus(note.Status) {
		return nil
	}

	return a.noteStore.UpdateStatus(ctx, noteID, status)
}

// SaveNoteSummary records the summary and marks the note done.
func (a *NoteServiceAdapter) SaveNoteSummary(ctx context.Context, noteID uuid.UUID, summary string) error {
	return a.noteStore.SaveSummary(ctx, noteID, summary)
}

// Ensure NoteServiceAdapter implements NoteService
var _ NoteService = (*NoteServiceAdapter)(nil)
