package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/precishq/precis-api/internal/domain"
	"github.com/precishq/precis-api/internal/job"
)

// RegisterRequest represents the payload for user registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest represents the payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents the response for successful authentication
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    string    `json:"expires_at,omitempty"`
}

// RefreshTokenRequest represents the payload for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse represents the response for a successful token refresh
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}

// CreateNoteRequest represents the payload for note creation
type CreateNoteRequest struct {
	Text string `json:"text" validate:"required,min=1,max=100000"`
}

// NoteCreatedResponse is returned when a note has been accepted for
// asynchronous summarization. The job ID lets the client poll for progress.
type NoteCreatedResponse struct {
	NoteID uuid.UUID `json:"note_id"`
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

// NoteResponse represents a note returned to the client
type NoteResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	RawText   string    `json:"raw_text"`
	Summary   string    `json:"summary,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteListResponse represents a paginated list of notes
type NoteListResponse struct {
	Notes  []NoteResponse `json:"notes"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// JobStatusResponse represents the state of a background job. Unknown job
// IDs yield a response with status "not_found" rather than an HTTP error.
type JobStatusResponse struct {
	JobID       uuid.UUID  `json:"job_id"`
	Type        string     `json:"type,omitempty"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// UserResponse represents a user account returned to administrators
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserListResponse represents a paginated list of user accounts
type UserListResponse struct {
	Users  []UserResponse `json:"users"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// noteToResponse converts a domain note to its API representation.
func noteToResponse(note *domain.Note) NoteResponse {
	return NoteResponse{
		ID:        note.ID,
		UserID:    note.UserID,
		RawText:   note.RawText,
		Summary:   note.Summary,
		Status:    string(note.Status),
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

// notesToResponse converts a slice of domain notes, preserving order.
func notesToResponse(notes []*domain.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteToResponse(n))
	}
	return out
}

// jobViewToResponse converts a job status view to its API representation.
// The zero CreatedAt of the not-found sentinel is omitted from the JSON.
func jobViewToResponse(view job.JobView) JobStatusResponse {
	resp := JobStatusResponse{
		JobID:       view.ID,
		Type:        view.Type,
		Status:      string(view.Status),
		Attempts:    view.Attempts,
		MaxAttempts: view.MaxAttempts,
		LastError:   view.LastError,
	}
	if !view.CreatedAt.IsZero() {
		createdAt := view.CreatedAt
		resp.CreatedAt = &createdAt
	}
	return resp
}

// userToResponse converts a domain user to its API representation. The
// password hash never leaves the store layer, so only safe fields appear.
func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

// usersToResponse converts a slice of domain users, preserving order.
func usersToResponse(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userToResponse(u))
	}
	return out
}
