package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/precishq/precis-api/internal/domain"
	"github.com/precishq/precis-api/internal/job"
)

func TestNoteToResponse(t *testing.T) {
	noteID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	createdAt := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)
	updatedAt := createdAt.Add(time.Minute)

	t.Run("summarized note", func(t *testing.T) {
		note := &domain.Note{
			ID:        noteID,
			UserID:    userID,
			RawText:   "raw text",
			Summary:   "the summary",
			Status:    domain.NoteStatusDone,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		}

		resp := noteToResponse(note)

		assert.Equal(t, noteID, resp.ID)
		assert.Equal(t, userID, resp.UserID)
		assert.Equal(t, "raw text", resp.RawText)
		assert.Equal(t, "the summary", resp.Summary)
		assert.Equal(t, string(domain.NoteStatusDone), resp.Status)
		assert.Equal(t, createdAt, resp.CreatedAt)
		assert.Equal(t, updatedAt, resp.UpdatedAt)
	})

	t.Run("pending note omits summary in JSON", func(t *testing.T) {
		note := &domain.Note{
			ID:        noteID,
			UserID:    userID,
			RawText:   "raw text",
			Status:    domain.NoteStatusQueued,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}

		jsonBytes, err := json.Marshal(noteToResponse(note))
		require.NoError(t, err)

		var fields map[string]interface{}
		require.NoError(t, json.Unmarshal(jsonBytes, &fields))
		_, hasSummary := fields["summary"]
		assert.False(t, hasSummary, "empty summary should be omitted")
	})
}

func TestNotesToResponse(t *testing.T) {
	userID := uuid.New()
	notes := []*domain.Note{
		{ID: uuid.New(), UserID: userID, RawText: "first", Status: domain.NoteStatusQueued},
		{ID: uuid.New(), UserID: userID, RawText: "second", Status: domain.NoteStatusDone},
	}

	resp := notesToResponse(notes)

	require.Len(t, resp, 2)
	assert.Equal(t, "first", resp[0].RawText)
	assert.Equal(t, "second", resp[1].RawText)

	// A nil slice still serializes as an empty JSON array, not null.
	empty := notesToResponse(nil)
	jsonBytes, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(jsonBytes))
}

func TestJobViewToResponse(t *testing.T) {
	jobID := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	createdAt := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stored job carries creation time", func(t *testing.T) {
		view := job.JobView{
			ID:          jobID,
			Type:        "summarize_note",
			Status:      job.StatusProcessing,
			Attempts:    1,
			MaxAttempts: 3,
			CreatedAt:   createdAt,
		}

		resp := jobViewToResponse(view)

		assert.Equal(t, jobID, resp.JobID)
		assert.Equal(t, "summarize_note", resp.Type)
		assert.Equal(t, string(job.StatusProcessing), resp.Status)
		assert.Equal(t, 1, resp.Attempts)
		assert.Equal(t, 3, resp.MaxAttempts)
		require.NotNil(t, resp.CreatedAt)
		assert.Equal(t, createdAt, *resp.CreatedAt)
	})

	t.Run("not found snapshot has no creation time", func(t *testing.T) {
		resp := jobViewToResponse(job.NotFoundView(jobID))

		assert.Equal(t, jobID, resp.JobID)
		assert.Equal(t, string(job.StatusNotFound), resp.Status)
		assert.Nil(t, resp.CreatedAt)

		jsonBytes, err := json.Marshal(resp)
		require.NoError(t, err)

		var fields map[string]interface{}
		require.NoError(t, json.Unmarshal(jsonBytes, &fields))
		_, hasCreatedAt := fields["created_at"]
		assert.False(t, hasCreatedAt, "zero creation time should be omitted")
	})
}

func TestUsersToResponse(t *testing.T) {
	createdAt := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)
	user := &domain.User{
		ID:             uuid.New(),
		Email:          "agent@example.com",
		HashedPassword: "$2a$10$secret",
		Role:           domain.RoleAdmin,
		CreatedAt:      createdAt,
	}

	resp := userToResponse(user)

	assert.Equal(t, user.ID, resp.ID)
	assert.Equal(t, "agent@example.com", resp.Email)
	assert.Equal(t, string(domain.RoleAdmin), resp.Role)
	assert.Equal(t, createdAt, resp.CreatedAt)

	// The response type has no password fields at all; make sure the JSON
	// never carries hash material.
	jsonBytes, err := json.Marshal(usersToResponse([]*domain.User{user}))
	require.NoError(t, err)
	assert.NotContains(t, string(jsonBytes), "secret")
	assert.NotContains(t, string(jsonBytes), "password")
}
