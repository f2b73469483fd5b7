package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/precishq/precis-api/internal/domain"
	"github.com/precishq/precis-api/internal/service"
)

// MockNoteService implements service.NoteService for testing
type MockNoteService struct {
	// Function fields for customizable behavior
	CreateNoteAndEnqueueJobFn func(ctx context.Context, userID uuid.UUID, text string) (*domain.Note, uuid.UUID, error)
	GetNoteFn                 func(ctx context.Context, noteID, requesterID uuid.UUID, isAdmin bool) (*domain.Note, error)
	ListNotesForUserFn        func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Note, error)
	ListAllNotesFn            func(ctx context.Context, limit, offset int) ([]*domain.Note, error)

	// Default values used when functions aren't explicitly defined
	Note  *domain.Note
	JobID uuid.UUID
	Notes []*domain.Note
	Err   error
}

var _ service.NoteService = (*MockNoteService)(nil)

// CreateNoteAndEnqueueJob implements the service.NoteService interface
func (m *MockNoteService) CreateNoteAndEnqueueJob(
	ctx context.Context,
	userID uuid.UUID,
	text string,
) (*domain.Note, uuid.UUID, error) {
	if m.CreateNoteAndEnqueueJobFn != nil {
		return m.CreateNoteAndEnqueueJobFn(ctx, userID, text)
	}
	return m.Note, m.JobID, m.Err
}

// GetNote implements the service.NoteService interface
func (m *MockNoteService) GetNote(
	ctx context.Context,
	noteID, requesterID uuid.UUID,
	isAdmin bool,
) (*domain.Note, error) {
	if m.GetNoteFn != nil {
		return m.GetNoteFn(ctx, noteID, requesterID, isAdmin)
	}
	return m.Note, m.Err
}

// ListNotesForUser implements the service.NoteService interface
func (m *MockNoteService) ListNotesForUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Note, error) {
	if m.ListNotesForUserFn != nil {
		return m.ListNotesForUserFn(ctx, userID, limit, offset)
	}
	return m.Notes, m.Err
}

// ListAllNotes implements the service.NoteService interface
func (m *MockNoteService) ListAllNotes(
	ctx context.Context,
	limit, offset int,
) ([]*domain.Note, error) {
	if m.ListAllNotesFn != nil {
		return m.ListAllNotesFn(ctx, limit, offset)
	}
	return m.Notes, m.Err
}
