package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/precishq/precis-api/internal/api/shared"
	"github.com/precishq/precis-api/internal/platform/logger"
	"github.com/precishq/precis-api/internal/redact"
	"github.com/precishq/precis-api/internal/service"
)

// NoteHandler handles note-related HTTP requests
type NoteHandler struct {
	noteService service.NoteService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewNoteHandler creates a new NoteHandler
func NewNoteHandler(noteService service.NoteService, logger *slog.Logger) *NoteHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for NoteHandler")
	}

	return &NoteHandler{
		noteService: noteService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "note_handler")),
	}
}

// CreateNote handles POST /notes requests. The note is persisted and a
// summarization job is enqueued atomically; the response carries the job ID
// so the client can poll /jobs/{id} for progress.
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	// Extract user ID from context (set by auth middleware)
	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	// Parse request body
	var req CreateNoteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Validation error: "+SanitizeValidationError(err), err)
		return
	}

	note, jobID, err := h.noteService.CreateNoteAndEnqueueJob(r.Context(), userID, req.Text)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)

		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to create note"
		}

		// Log the full error details but only send the sanitized message
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("note accepted for summarization",
		slog.String("user_id", userID.String()),
		slog.String("note_id", note.ID.String()),
		slog.String("job_id", jobID.String()))

	// Processing happens asynchronously, so reply with 202 Accepted
	shared.RespondWithJSON(w, r, http.StatusAccepted, NoteCreatedResponse{
		NoteID: note.ID,
		JobID:  jobID,
		Status: string(note.Status),
	})
}

// GetNote handles GET /notes/{id} requests. Agents can only read their own
// notes; admins can read any note.
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, noteID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	note, err := h.noteService.GetNote(r.Context(), noteID, userID, isAdminRequest(r))
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)

		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to get note"
		}

		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, noteToResponse(note))
}

// ListNotes handles GET /notes requests. It returns the authenticated user's
// notes, newest first, honoring the limit and offset query parameters.
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	limit, offset := parsePagination(r)

	notes, err := h.noteService.ListNotesForUser(r.Context(), userID, limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to list notes", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NoteListResponse{
		Notes:  notesToResponse(notes),
		Limit:  limit,
		Offset: offset,
	})
}
