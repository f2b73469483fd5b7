package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/precishq/precis-api/internal/domain"
	"github.com/precishq/precis-api/internal/job"
	"github.com/precishq/precis-api/internal/summary"
)

// JobTypeSummarizeNote is the type tag for note summarization jobs.
const JobTypeSummarizeNote = "summarize_note"

// Common errors
var (
	ErrNilNoteService = errors.New("note service cannot be nil")
	ErrNilSummarizer  = errors.New("summarizer cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
	ErrEmptyNoteID    = errors.New("note ID cannot be empty")
)

// NoteService defines the note operations the handler needs. The adapter in
// this package implements it over the note store; keeping the interface here
// avoids a dependency from the handler on the persistence layer.
type NoteService interface {
	// UpdateNoteStatus updates a note's status
	UpdateNoteStatus(ctx context.Context, noteID uuid.UUID, status domain.NoteStatus) error

	// SaveNoteSummary records the summary and marks the note done
	SaveNoteSummary(ctx context.Context, noteID uuid.UUID, summary string) error
}

// SummarizeNotePayload is the typed payload carried by summarize_note jobs.
// It holds the raw text alongside the note ID so the handler does not need to
// re-read the note to do its work.
type SummarizeNotePayload struct {
	NoteID  uuid.UUID `json:"note_id"`
	RawText string    `json:"raw_text"`
}

// SummarizeNoteHandler executes summarize_note jobs: it marks the note
// processing, produces a summary, and stores it. Failures propagate to the
// scheduler, which owns the retry policy; only when the scheduler gives up
// does OnExhausted mark the note failed.
type SummarizeNoteHandler struct {
	noteService NoteService
	summarizer  summary.Summarizer
	logger      *slog.Logger
}

// NewSummarizeNoteHandler creates the handler for summarize_note jobs.
func NewSummarizeNoteHandler(
	noteService NoteService,
	summarizer summary.Summarizer,
	logger *slog.Logger,
) (*SummarizeNoteHandler, error) {
	if noteService == nil {
		return nil, ErrNilNoteService
	}
	if summarizer == nil {
		return nil, ErrNilSummarizer
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &SummarizeNoteHandler{
		noteService: noteService,
		summarizer:  summarizer,
		logger:      logger.With("job_type", JobTypeSummarizeNote),
	}, nil
}

// Handle runs one summarization attempt for the note in the payload.
func (h *SummarizeNoteHandler) Handle(ctx context.Context, payload SummarizeNotePayload) error {
	if payload.NoteID == uuid.Nil {
		return ErrEmptyNoteID
	}

	log := h.logger.With("note_id", payload.NoteID)
	log.Info("starting note summarization")

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("summarization cancelled by context: %w", err)
	}

	if err := h.noteService.UpdateNoteStatus(ctx, payload.NoteID, domain.NoteStatusProcessing); err != nil {
		return fmt.Errorf("failed to mark note processing: %w", err)
	}

	summaryText, err := h.summarizer.Summarize(ctx, payload.RawText)
	if err != nil {
		// The note stays processing; the scheduler decides whether this
		// attempt gets retried or the job is failed for good.
		return fmt.Errorf("failed to summarize note: %w", err)
	}

	if err := h.noteService.SaveNoteSummary(ctx, payload.NoteID, summaryText); err != nil {
		return fmt.Errorf("failed to save note summary: %w", err)
	}

	log.Info("note summarized successfully", "summary_length", len(summaryText))
	return nil
}

// OnExhausted marks the note failed after the job's final attempt. It runs
// best-effort: a store error here is logged, not returned, because the job is
// already in its terminal state.
func (h *SummarizeNoteHandler) OnExhausted(ctx context.Context, payload SummarizeNotePayload, cause error) {
	log := h.logger.With("note_id", payload.NoteID)
	log.Error("summarization permanently failed, marking note failed", "error", cause)

	if payload.NoteID == uuid.Nil {
		return
	}

	if err := h.noteService.UpdateNoteStatus(ctx, payload.NoteID, domain.NoteStatusFailed); err != nil {
		log.Error("failed to mark note failed", "error", err)
	}
}

// Register wires the handler into the scheduler's registry under its type tag.
func (h *SummarizeNoteHandler) Register(registry *job.Registry) error {
	return job.RegisterDefinition(registry, job.Definition[SummarizeNotePayload]{
		Type:        JobTypeSummarizeNote,
		Handle:      h.Handle,
		OnExhausted: h.OnExhausted,
	})
}
