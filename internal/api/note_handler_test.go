package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/precishq/precis-api/internal/api/shared"
	"github.com/precishq/precis-api/internal/domain"
	"github.com/precishq/precis-api/internal/job"
	"github.com/precishq/precis-api/internal/mocks"
	"github.com/precishq/precis-api/internal/service"
)

// newTestLogger returns a logger that swallows output.
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

// withRouteParam installs a chi route context carrying the given URL
// parameter, mirroring what the router does in production.
func withRouteParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

func TestNoteHandler_CreateNote(t *testing.T) {
	// Setup fixed values for consistent testing
	fixedUserID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	fixedNoteID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	fixedJobID := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	fixedTime := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		setupContext   func(context.Context) context.Context
		requestBody    interface{}
		setupMock      func(*mocks.MockNoteService)
		expectedStatus int
		expectedErrMsg string
		expectedNoteID string
		expectedJobID  string
	}{
		{
			name: "successful_note_creation",
			setupContext: func(ctx context.Context) context.Context {
				return context.WithValue(ctx, shared.UserIDContextKey, fixedUserID)
			},
			requestBody: CreateNoteRequest{
				Text: "Standup notes from Monday morning",
			},
			setupMock: func(ns *mocks.MockNoteService) {
				ns.CreateNoteAndEnqueueJobFn = func(ctx context.Context, userID uuid.UUID, text string) (*domain.Note, uuid.UUID, error) {
					return &domain.Note{
						ID:        fixedNoteID,
						UserID:    userID,
						RawText:   text,
						Status:    domain.NoteStatusQueued,
						CreatedAt: fixedTime,
						UpdatedAt: fixedTime,
					}, fixedJobID, nil
				}
			},
			expectedStatus: http.StatusAccepted,
			expectedNoteID: fixedNoteID.String(),
			expectedJobID:  fixedJobID.String(),
		},
		{
			name: "missing_user_id",
			setupContext: func(ctx context.Context) context.Context {
				// No user ID in context
				return ctx
			},
			requestBody: CreateNoteRequest{
				Text: "Standup notes from Monday morning",
			},
			setupMock:      func(ns *mocks.MockNoteService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedErrMsg: "User ID not found or invalid",
		},
		{
			name: "invalid_user_id",
			setupContext: func(ctx context.Context) context.Context {
				// Invalid user ID type
				return context.WithValue(ctx, shared.UserIDContextKey, "not-a-uuid")
			},
			requestBody: CreateNoteRequest{
				Text: "Standup notes from Monday morning",
			},
			setupMock:      func(ns *mocks.MockNoteService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedErrMsg: "User ID not found or invalid",
		},
		{
			name: "nil_user_id",
			setupContext: func(ctx context.Context) context.Context {
				// Nil UUID (zero value)
				return context.WithValue(ctx, shared.UserIDContextKey, uuid.Nil)
			},
			requestBody: CreateNoteRequest{
				Text: "Standup notes from Monday morning",
			},
			setupMock:      func(ns *mocks.MockNoteService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedErrMsg: "User ID not found or invalid",
		},
		{
			name: "invalid_request_format",
			setupContext: func(ctx context.Context) context.Context {
				return context.WithValue(ctx, shared.UserIDContextKey, fixedUserID)
			},
			requestBody: `{
				"text": "Invalid JSON
			}`,
			setupMock:      func(ns *mocks.MockNoteService) {},
			expectedStatus: http.StatusBadRequest,
			expectedErrMsg: "Invalid request format",
		},
		{
			name: "missing_required_text",
			setupContext: func(ctx context.Context) context.Context {
				return context.WithValue(ctx, shared.UserIDContextKey, fixedUserID)
			},
			requestBody: CreateNoteRequest{
				// Text field intentionally empty
				Text: "",
			},
			setupMock:      func(ns *mocks.MockNoteService) {},
			expectedStatus: http.StatusBadRequest,
			expectedErrMsg: "required field",
		},
		{
			name: "empty_text_rejected_by_domain",
			setupContext: func(ctx context.Context) context.Context {
				return context.WithValue(ctx, shared.UserIDContextKey, fixedUserID)
			},
			requestBody: CreateNoteRequest{
				Text: "   ",
			},
			setupMock: func(ns *mocks.MockNoteService) {
				ns.CreateNoteAndEnqueueJobFn = func(ctx context.Context, userID uuid.UUID, text string) (*domain.Note, uuid.UUID, error) {
					return nil, uuid.Nil, domain.ErrEmptyNoteText
				}
			},
			expectedStatus: http.StatusBadRequest,
			expectedErrMsg: "Note text cannot be empty",
		},
		{
			name: "duplicate_job",
			setupContext: func(ctx context.Context) context.Context {
				return context.WithValue(ctx, shared.UserIDContextKey, fixedUserID)
			},
			requestBody: CreateNoteRequest{
				Text: "Standup notes from Monday morning",
			},
			setupMock: func(ns *mocks.MockNoteService) {
				ns.CreateNoteAndEnqueueJobFn = func(ctx context.Context, userID uuid.UUID, text string) (*domain.Note, uuid.UUID, error) {
					return nil, uuid.Nil, service.NewNoteServiceError(
						"create_note",
						"failed to enqueue summarization job",
						job.ErrDuplicateJob,
					)
				}
			},
			expectedStatus: http.StatusConflict,
			expectedErrMsg: "Job already exists",
		},
		{
			name: "service_error",
			setupContext: func(ctx context.Context) context.Context {
				return context.WithValue(ctx, shared.UserIDContextKey, fixedUserID)
			},
			requestBody: CreateNoteRequest{
				Text: "Standup notes from Monday morning",
			},
			setupMock: func(ns *mocks.MockNoteService) {
				ns.CreateNoteAndEnqueueJobFn = func(ctx context.Context, userID uuid.UUID, text string) (*domain.Note, uuid.UUID, error) {
					return nil, uuid.Nil, errors.New("unexpected service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			expectedErrMsg: "Failed to create note",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create a new mock service
			mockService := &mocks.MockNoteService{}

			// Configure the mock
			tt.setupMock(mockService)

			// Create a handler with the mock service
			handler := NewNoteHandler(mockService, newTestLogger())

			// Create request body
			var reqBody []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				// Handle raw JSON string for invalid format tests
				reqBody = []byte(str)
			} else {
				// Handle structured request object
				reqBody, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			// Create request
			req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			// Apply context setup
			req = req.WithContext(tt.setupContext(req.Context()))

			// Create response recorder
			w := httptest.NewRecorder()

			// Call the handler
			handler.CreateNote(w, req)

			// Check status code
			assert.Equal(t, tt.expectedStatus, w.Code)

			// Parse response
			var respBody map[string]interface{}
			err = json.Unmarshal(w.Body.Bytes(), &respBody)
			require.NoError(t, err)

			// Check error response
			if tt.expectedErrMsg != "" {
				errorMsg, ok := respBody["error"].(string)
				assert.True(t, ok, "Expected error field in response")
				assert.Contains(t, errorMsg, tt.expectedErrMsg)
			}

			// Check success response
			if tt.expectedNoteID != "" {
				assert.Equal(t, tt.expectedNoteID, respBody["note_id"])
				assert.Equal(t, tt.expectedJobID, respBody["job_id"])
				assert.Equal(t, string(domain.NoteStatusQueued), respBody["status"])
			}
		})
	}
}

func TestNoteHandler_GetNote(t *testing.T) {
	fixedUserID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	fixedNoteID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	fixedTime := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)

	summarizedNote := &domain.Note{
		ID:        fixedNoteID,
		UserID:    fixedUserID,
		RawText:   "Standup notes from Monday morning",
		Summary:   "Monday standup summary",
		Status:    domain.NoteStatusDone,
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
	}

	tests := []struct {
		name           string
		pathID         string
		authenticated  bool
		setupMock      func(*mocks.MockNoteService)
		expectedStatus int
		expectedErrMsg string
		checkNote      bool
	}{
		{
			name:          "owner_reads_note",
			pathID:        fixedNoteID.String(),
			authenticated: true,
			setupMock: func(ns *mocks.MockNoteService) {
				ns.GetNoteFn = func(ctx context.Context, noteID, requesterID uuid.UUID, isAdmin bool) (*domain.Note, error) {
					assert.Equal(t, fixedNoteID, noteID)
					assert.Equal(t, fixedUserID, requesterID)
					assert.False(t, isAdmin)
					return summarizedNote, nil
				}
			},
			expectedStatus: http.StatusOK,
			checkNote:      true,
		},
		{
			name:          "foreign_note_forbidden",
			pathID:        fixedNoteID.String(),
			authenticated: true,
			setupMock: func(ns *mocks.MockNoteService) {
				ns.GetNoteFn = func(ctx context.Context, noteID, requesterID uuid.UUID, isAdmin bool) (*domain.Note, error) {
					return nil, service.ErrNotOwned
				}
			},
			expectedStatus: http.StatusForbidden,
			expectedErrMsg: "You do not own this note",
		},
		{
			name:          "note_not_found",
			pathID:        fixedNoteID.String(),
			authenticated: true,
			setupMock: func(ns *mocks.MockNoteService) {
				ns.GetNoteFn = func(ctx context.Context, noteID, requesterID uuid.UUID, isAdmin bool) (*domain.Note, error) {
					return nil, service.ErrNoteNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
			expectedErrMsg: "Note not found",
		},
		{
			name:           "invalid_note_id",
			pathID:         "not-a-uuid",
			authenticated:  true,
			setupMock:      func(ns *mocks.MockNoteService) {},
			expectedStatus: http.StatusBadRequest,
			expectedErrMsg: "Invalid ID format",
		},
		{
			name:           "unauthenticated",
			pathID:         fixedNoteID.String(),
			authenticated:  false,
			setupMock:      func(ns *mocks.MockNoteService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedErrMsg: "User ID not found or invalid",
		},
		{
			name:          "service_failure",
			pathID:        fixedNoteID.String(),
			authenticated: true,
			setupMock: func(ns *mocks.MockNoteService) {
				ns.GetNoteFn = func(ctx context.Context, noteID, requesterID uuid.UUID, isAdmin bool) (*domain.Note, error) {
					return nil, service.NewNoteServiceError(
						"get_note",
						"failed to get note from database",
						errors.New("connection refused"),
					)
				}
			},
			expectedStatus: http.StatusInternalServerError,
			expectedErrMsg: "Failed to get note",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mocks.MockNoteService{}
			tt.setupMock(mockService)

			handler := NewNoteHandler(mockService, newTestLogger())

			req := httptest.NewRequest(http.MethodGet, "/notes/"+tt.pathID, nil)
			if tt.authenticated {
				ctx := context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID)
				req = req.WithContext(ctx)
			}
			req = withRouteParam(req, "id", tt.pathID)

			w := httptest.NewRecorder()
			handler.GetNote(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var respBody map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &respBody)
			require.NoError(t, err)

			if tt.expectedErrMsg != "" {
				errorMsg, ok := respBody["error"].(string)
				assert.True(t, ok, "Expected error field in response")
				assert.Contains(t, errorMsg, tt.expectedErrMsg)
			}

			if tt.checkNote {
				assert.Equal(t, fixedNoteID.String(), respBody["id"])
				assert.Equal(t, fixedUserID.String(), respBody["user_id"])
				assert.Equal(t, "Standup notes from Monday morning", respBody["raw_text"])
				assert.Equal(t, "Monday standup summary", respBody["summary"])
				assert.Equal(t, string(domain.NoteStatusDone), respBody["status"])
			}
		})
	}
}

func TestNoteHandler_ListNotes(t *testing.T) {
	fixedUserID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	fixedTime := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)

	makeNotes := func(n int) []*domain.Note {
		notes := make([]*domain.Note, 0, n)
		for i := 0; i < n; i++ {
			notes = append(notes, &domain.Note{
				ID:        uuid.New(),
				UserID:    fixedUserID,
				RawText:   "note text",
				Status:    domain.NoteStatusQueued,
				CreatedAt: fixedTime,
				UpdatedAt: fixedTime,
			})
		}
		return notes
	}

	t.Run("default pagination", func(t *testing.T) {
		var gotLimit, gotOffset int
		mockService := &mocks.MockNoteService{
			ListNotesForUserFn: func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Note, error) {
				assert.Equal(t, fixedUserID, userID)
				gotLimit, gotOffset = limit, offset
				return makeNotes(3), nil
			},
		}
		handler := NewNoteHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/notes", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))

		w := httptest.NewRecorder()
		handler.ListNotes(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, defaultPageLimit, gotLimit)
		assert.Equal(t, 0, gotOffset)

		var resp NoteListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Notes, 3)
		assert.Equal(t, defaultPageLimit, resp.Limit)
		assert.Equal(t, 0, resp.Offset)
	})

	t.Run("explicit pagination", func(t *testing.T) {
		var gotLimit, gotOffset int
		mockService := &mocks.MockNoteService{
			ListNotesForUserFn: func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Note, error) {
				gotLimit, gotOffset = limit, offset
				return makeNotes(5), nil
			},
		}
		handler := NewNoteHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/notes?limit=5&offset=10", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))

		w := httptest.NewRecorder()
		handler.ListNotes(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 5, gotLimit)
		assert.Equal(t, 10, gotOffset)
	})

	t.Run("oversized limit clamped", func(t *testing.T) {
		var gotLimit int
		mockService := &mocks.MockNoteService{
			ListNotesForUserFn: func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Note, error) {
				gotLimit = limit
				return nil, nil
			},
		}
		handler := NewNoteHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/notes?limit=5000", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))

		w := httptest.NewRecorder()
		handler.ListNotes(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, maxPageLimit, gotLimit)
	})

	t.Run("garbage pagination ignored", func(t *testing.T) {
		var gotLimit, gotOffset int
		mockService := &mocks.MockNoteService{
			ListNotesForUserFn: func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Note, error) {
				gotLimit, gotOffset = limit, offset
				return nil, nil
			},
		}
		handler := NewNoteHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/notes?limit=-3&offset=abc", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))

		w := httptest.NewRecorder()
		handler.ListNotes(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, defaultPageLimit, gotLimit)
		assert.Equal(t, 0, gotOffset)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		handler := NewNoteHandler(&mocks.MockNoteService{}, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/notes", nil)
		w := httptest.NewRecorder()
		handler.ListNotes(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockService := &mocks.MockNoteService{Err: errors.New("database down")}
		handler := NewNoteHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/notes", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))

		w := httptest.NewRecorder()
		handler.ListNotes(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to list notes")
	})
}

func TestNewNoteHandler(t *testing.T) {
	mockService := &mocks.MockNoteService{}

	t.Run("with_logger", func(t *testing.T) {
		handler := NewNoteHandler(mockService, newTestLogger())

		assert.NotNil(t, handler)
		assert.Equal(t, mockService, handler.noteService)
		assert.NotNil(t, handler.validator)
		assert.NotNil(t, handler.logger)
	})

	t.Run("without_logger", func(t *testing.T) {
		// Test for panic with nil logger
		assert.Panics(t, func() {
			NewNoteHandler(mockService, nil)
		})
	})
}
