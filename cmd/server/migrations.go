package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/precishq/precis-api/migrations"
)

// migrationTableName is the table goose uses to track applied versions.
const migrationTableName = "schema_migrations"

// slogGooseLogger adapts goose's logger interface to structured logging.
type slogGooseLogger struct{}

// Printf implements the goose.Logger interface by forwarding messages
// to slog.Info.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger interface by forwarding messages
// to slog.Error. Unlike the standard library Fatalf it does not exit;
// goose returns the underlying error to the caller, which owns process
// exit.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

// runMigrations executes the given goose command against the embedded
// migration files. Supported commands are up, down, status, and version.
func runMigrations(db *sql.DB, logger *slog.Logger, command string) error {
	goose.SetLogger(&slogGooseLogger{})
	goose.SetBaseFS(migrations.FS)
	goose.SetTableName(migrationTableName)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	logger.Info("Running migration command", "command", command)

	var err error
	switch command {
	case "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	case "version":
		err = goose.Version(db, ".")
	default:
		return fmt.Errorf("unknown migration command: %q (expected up, down, status, or version)", command)
	}
	if err != nil {
		return fmt.Errorf("migration command %q failed: %w", command, err)
	}

	logger.Info("Migration command completed", "command", command)
	return nil
}
