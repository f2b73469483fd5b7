// Package main implements the entry point for the precis API server.
// It loads configuration, establishes the database connection, wires the
// application dependencies, and either runs a migration command or starts
// the HTTP server with the background job scheduler.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/precishq/precis-api/internal/config"
	"github.com/precishq/precis-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status, version) and exit")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, sets up logging and the database, and then
// either executes the requested migration command or starts the server.
// All fatal paths return an error rather than exiting so that deferred
// cleanup runs.
func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("Configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"job_store", cfg.Job.Store)

	db, err := setupAppDatabase(cfg, log)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer closeDatabase(db, log)
		return runMigrations(db, log, migrateCmd)
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrations(db, log, "up"); err != nil {
			closeDatabase(db, log)
			return fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		closeDatabase(db, log)
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
