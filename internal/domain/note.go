package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// NoteStatus represents the summarization state of a note.
type NoteStatus string

// Possible note status values. The status mirrors the progress of the
// background summarization job that owns the note.
const (
	NoteStatusQueued     NoteStatus = "queued"
	NoteStatusProcessing NoteStatus = "processing"
	NoteStatusDone       NoteStatus = "done"
	NoteStatusFailed     NoteStatus = "failed"
)

// Common validation errors for Note
var (
	ErrEmptyNoteID       = errors.New("note ID cannot be empty")
	ErrEmptyNoteUserID   = errors.New("note user ID cannot be empty")
	ErrEmptyNoteText     = errors.New("note text cannot be empty")
	ErrInvalidNoteStatus = errors.New("invalid note status")
)

// Note represents a text record submitted by a user for asynchronous
// summarization. It tracks the original content, the machine-generated
// summary once available, and the processing state.
type Note struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	RawText   string     `json:"raw_text"`
	Summary   string     `json:"summary,omitempty"`
	Status    NoteStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewNote creates a new Note with the given user ID and raw text.
// It generates a new UUID for the note ID, sets the status to queued,
// and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewNote(userID uuid.UUID, rawText string) (*Note, error) {
	note := &Note{
		ID:        uuid.New(),
		UserID:    userID,
		RawText:   rawText,
		Status:    NoteStatusQueued,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := note.Validate(); err != nil {
		return nil, err
	}

	return note, nil
}

// Validate checks if the Note has valid data.
// Returns an error if any field fails validation.
func (n *Note) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNoteID
	}

	if n.UserID == uuid.Nil {
		return ErrEmptyNoteUserID
	}

	if n.RawText == "" {
		return ErrEmptyNoteText
	}

	if !ValidNoteStatus(n.Status) {
		return ErrInvalidNoteStatus
	}

	return nil
}

// UpdateStatus updates the note's status and the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (n *Note) UpdateStatus(status NoteStatus) error {
	if !ValidNoteStatus(status) {
		return ErrInvalidNoteStatus
	}

	n.Status = status
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// ValidNoteStatus checks if the given status is a valid NoteStatus.
func ValidNoteStatus(status NoteStatus) bool {
	switch status {
	case NoteStatusQueued, NoteStatusProcessing, NoteStatusDone, NoteStatusFailed:
		return true
	default:
		return false
	}
}

// TerminalNoteStatus reports whether the status is one of the terminal
// states (done or failed), after which the job layer stops writing to the
// note.
func TerminalNoteStatus(status NoteStatus) bool {
	return status == NoteStatusDone || status == NoteStatusFailed
}
