package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/precishq/precis-api/internal/domain"
	"github.com/precishq/precis-api/internal/platform/logger"
	"github.com/precishq/precis-api/internal/store"
)

// PostgresNoteStore implements the store.NoteStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNoteStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNoteStore creates a new PostgreSQL implementation of the NoteStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresNoteStore(db store.DBTX, logger *slog.Logger) *PostgresNoteStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNoteStore{
		db:     db,
		logger: logger.With(slog.String("component", "note_store")),
	}
}

// Ensure PostgresNoteStore implements store.NoteStore interface
var _ store.NoteStore = (*PostgresNoteStore)(nil)

// WithTx implements store.NoteStore.WithTx
func (s *PostgresNoteStore) WithTx(tx *sql.Tx) store.NoteStore {
	return &PostgresNoteStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.NoteStore.Create
// It saves a new note to the database, handling domain validation.
// Returns validation errors from the domain Note if data is invalid.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key violation).
func (s *PostgresNoteStore) Create(ctx context.Context, note *domain.Note) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := note.Validate(); err != nil {
		log.Warn("note validation failed during create",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return err
	}

	query := `
		INSERT INTO notes (id, user_id, raw_text, summary, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		note.ID,
		note.UserID,
		note.RawText,
		note.Summary,
		note.Status,
		note.CreatedAt,
		note.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			log.Warn("foreign key violation during note creation",
				slog.String("error", err.Error()),
				slog.String("note_id", note.ID.String()),
				slog.String("user_id", note.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, note.UserID)
		}

		log.Error("failed to create note",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()),
			slog.String("user_id", note.UserID.String()))
		return err
	}

	log.Info("note created successfully",
		slog.String("note_id", note.ID.String()),
		slog.String("user_id", note.UserID.String()),
		slog.String("status", string(note.Status)))
	return nil
}

// GetByID implements store.NoteStore.GetByID
// It retrieves a note by its unique ID.
// Returns store.ErrNoteNotFound if the note does not exist.
func (s *PostgresNoteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving note by ID", slog.String("note_id", id.String()))

	query := `
		SELECT id, user_id, raw_text, summary, status, created_at, updated_at
		FROM notes
		WHERE id = $1
	`

	note, err := scanNoteRow(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("note not found", slog.String("note_id", id.String()))
			return nil, store.ErrNoteNotFound
		}
		log.Error("failed to get note by ID",
			slog.String("error", err.Error()),
			slog.String("note_id", id.String()))
		return nil, err
	}

	log.Debug("note retrieved successfully",
		slog.String("note_id", id.String()),
		slog.String("status", string(note.Status)))
	return note, nil
}

// UpdateStatus implements store.NoteStore.UpdateStatus
// It updates the status of an existing note.
// Returns store.ErrNoteNotFound if the note does not exist.
// Returns domain.ErrInvalidNoteStatus if the status is invalid.
func (s *PostgresNoteStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NoteStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("updating note status",
		slog.String("note_id", id.String()),
		slog.String("status", string(status)))

	// Reject unknown statuses before touching the database.
	if !domain.ValidNoteStatus(status) {
		log.Warn("invalid status for note update",
			slog.String("note_id", id.String()),
			slog.String("status", string(status)))
		return domain.ErrInvalidNoteStatus
	}

	query := `
		UPDATE notes
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update note status",
			slog.String("error", err.Error()),
			slog.String("note_id", id.String()),
			slog.String("status", string(status)))
		return err
	}

	if err := CheckRowsAffected(result, "note"); err != nil {
		log.Debug("note not found for status update",
			slog.String("note_id", id.String()))
		return store.ErrNoteNotFound
	}

	log.Info("note status updated successfully",
		slog.String("note_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// SaveSummary implements store.NoteStore.SaveSummary
// It records the generated summary and marks the note done in one write, so a
// reader never observes a done note without its summary.
// Returns store.ErrNoteNotFound if the note does not exist.
func (s *PostgresNoteStore) SaveSummary(ctx context.Context, id uuid.UUID, summary string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("saving note summary", slog.String("note_id", id.String()))

	query := `
		UPDATE notes
		SET summary = $1, status = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		summary,
		domain.NoteStatusDone,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to save note summary",
			slog.String("error", err.Error()),
			slog.String("note_id", id.String()))
		return err
	}

	if err := CheckRowsAffected(result, "note"); err != nil {
		log.Debug("note not found for summary save",
			slog.String("note_id", id.String()))
		return store.ErrNoteNotFound
	}

	log.Info("note summary saved",
		slog.String("note_id", id.String()),
		slog.Int("summary_chars", len(summary)))
	return nil
}

// ListByUserID implements store.NoteStore.ListByUserID
// It retrieves the user's notes, newest first.
// Returns an empty slice if the user has no notes.
func (s *PostgresNoteStore) ListByUserID(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Note, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	log.Debug("listing notes for user",
		slog.String("user_id", userID.String()),
		slog.Int("limit", limit),
		slog.Int("offset", offset))

	query := `
		SELECT id, user_id, raw_text, summary, status, created_at, updated_at
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to query notes for user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	return collectNotes(rows, log)
}

// ListAll implements store.NoteStore.ListAll
// It retrieves notes across all users, newest first.
func (s *PostgresNoteStore) ListAll(ctx context.Context, limit, offset int) ([]*domain.Note, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	log.Debug("listing all notes",
		slog.Int("limit", limit),
		slog.Int("offset", offset))

	query := `
		SELECT id, user_id, raw_text, summary, status, created_at, updated_at
		FROM notes
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		log.Error("failed to query all notes", slog.String("error", err.Error()))
		return nil, err
	}

	return collectNotes(rows, log)
}

// scanNoteRow reads one note row. The caller handles sql.ErrNoRows.
func scanNoteRow(row *sql.Row) (*domain.Note, error) {
	var note domain.Note
	var status string
	var summary sql.NullString

	err := row.Scan(
		&note.ID,
		&note.UserID,
		&note.RawText,
		&summary,
		&status,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	note.Summary = summary.String
	note.Status = domain.NoteStatus(status)
	return &note, nil
}

// collectNotes drains a note result set, closing it when done.
func collectNotes(rows *sql.Rows, log *slog.Logger) ([]*domain.Note, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	notes := []*domain.Note{}
	for rows.Next() {
		var note domain.Note
		var status string
		var summary sql.NullString

		err := rows.Scan(
			&note.ID,
			&note.UserID,
			&note.RawText,
			&summary,
			&status,
			&note.CreatedAt,
			&note.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan note row", slog.String("error", err.Error()))
			return nil, err
		}

		note.Summary = summary.String
		note.Status = domain.NoteStatus(status)
		notes = append(notes, &note)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning note rows", slog.String("error", err.Error()))
		return nil, err
	}

	return notes, nil
}
