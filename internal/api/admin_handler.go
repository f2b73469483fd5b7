package api

import (
	"log/slog"
	"net/http"

	"github.com/precishq/precis-api/internal/api/shared"
	"github.com/precishq/precis-api/internal/platform/logger"
	"github.com/precishq/precis-api/internal/service"
	"github.com/precishq/precis-api/internal/store"
)

// AdminHandler handles administrative HTTP requests. All routes using it
// must sit behind the RequireAdmin middleware.
type AdminHandler struct {
	userStore   store.UserStore
	noteService service.NoteService
	logger      *slog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	userStore store.UserStore,
	noteService service.NoteService,
	logger *slog.Logger,
) *AdminHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AdminHandler")
	}

	return &AdminHandler{
		userStore:   userStore,
		noteService: noteService,
		logger:      logger.With(slog.String("component", "admin_handler")),
	}
}

// ListUsers handles GET /admin/users requests. It returns registered user
// accounts, newest first, honoring the limit and offset query parameters.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	limit, offset := parsePagination(r)

	users, err := h.userStore.List(r.Context(), limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	log.Debug("admin listed users", slog.Int("count", len(users)))

	shared.RespondWithJSON(w, r, http.StatusOK, UserListResponse{
		Users:  usersToResponse(users),
		Limit:  limit,
		Offset: offset,
	})
}

// ListNotes handles GET /admin/notes requests. Unlike GET /notes it spans
// every user's notes.
func (h *AdminHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	limit, offset := parsePagination(r)

	notes, err := h.noteService.ListAllNotes(r.Context(), limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to list notes", err)
		return
	}

	log.Debug("admin listed notes", slog.Int("count", len(notes)))

	shared.RespondWithJSON(w, r, http.StatusOK, NoteListResponse{
		Notes:  notesToResponse(notes),
		Limit:  limit,
		Offset: offset,
	})
}
