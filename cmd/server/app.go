package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/precishq/precis-api/internal/config"
	"github.com/precishq/precis-api/internal/events"
	"github.com/precishq/precis-api/internal/job"
	"github.com/precishq/precis-api/internal/platform/gemini"
	"github.com/precishq/precis-api/internal/platform/postgres"
	"github.com/precishq/precis-api/internal/platform/redis"
	"github.com/precishq/precis-api/internal/service"
	"github.com/precishq/precis-api/internal/service/auth"
	"github.com/precishq/precis-api/internal/store"
	"github.com/precishq/precis-api/internal/summary"
	"github.com/precishq/precis-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore store.UserStore
	noteStore store.NoteStore
	jobStore  job.Store

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	noteService      service.NoteService

	// Summarization chain. summarizerName records which backend sits at
	// the front of the chain for the health endpoint.
	summarizer     summary.Summarizer
	summarizerName string

	// Event system
	eventEmitter events.EventEmitter

	// Job processing
	scheduler *job.Scheduler

	// Redis client, set only when the job store backend is redis.
	redisClient *goredis.Client
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization. The job scheduler is started last, after the handler
// registry is populated, so that jobs persisted by a previous run are never
// dispatched without a handler.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize password verifier
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Initialize stores
	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost)
	app.noteStore = postgres.NewPostgresNoteStore(db, logger)

	if err := app.setupJobStore(ctx); err != nil {
		return nil, err
	}

	if err := app.setupSummarizer(ctx); err != nil {
		return nil, err
	}

	// Initialize the job registry and scheduler
	registry := job.NewRegistry()
	app.scheduler = job.NewScheduler(app.jobStore, registry, job.SchedulerConfig{
		ScanInterval:   cfg.Job.ScanInterval,
		HandlerTimeout: cfg.Job.HandlerTimeout,
		MaxAttempts:    cfg.Job.MaxAttempts,
	}, logger)

	// Initialize event emitter
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	// Initialize note service
	app.noteService, err = service.NewNoteService(db, app.noteStore, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create note service: %w", err)
	}

	// Register the summarize_note handler
	noteServiceAdapter, err := task.NewNoteServiceAdapter(app.noteStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create note service adapter: %w", err)
	}

	summarizeHandler, err := task.NewSummarizeNoteHandler(noteServiceAdapter, app.summarizer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create summarize note handler: %w", err)
	}

	if err := summarizeHandler.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register summarize note handler: %w", err)
	}

	// Bridge note events into the job queue
	eventHandler := task.NewJobRequestEventHandler(app.scheduler, logger)
	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(eventHandler)
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register job request handler")
	}

	// Start the scheduler now that all handlers are registered
	if err := app.scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start job scheduler: %w", err)
	}
	logger.Info("Job scheduler started",
		"job_types", registry.Types(),
		"scan_interval", cfg.Job.ScanInterval,
		"handler_timeout", cfg.Job.HandlerTimeout,
		"max_attempts", cfg.Job.MaxAttempts)

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupJobStore selects the job store backend from configuration.
// The config layer guarantees the value is one of memory, postgres, or
// redis.
func (app *application) setupJobStore(ctx context.Context) error {
	switch app.config.Job.Store {
	case "postgres":
		app.jobStore = postgres.NewPostgresJobStore(app.db)
		app.logger.Info("Job store initialized", "backend", "postgres")

	case "redis":
		if app.config.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when job.store is redis")
		}
		client := goredis.NewClient(&goredis.Options{
			Addr:     app.config.Redis.Addr,
			Password: app.config.Redis.Password,
			DB:       app.config.Redis.DB,
		})
		jobStore := redis.NewJobStore(client, redis.WithLogger(app.logger))
		if err := jobStore.Ping(ctx); err != nil {
			if closeErr := client.Close(); closeErr != nil {
				app.logger.Error("Error closing redis client", "error", closeErr)
			}
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		app.redisClient = client
		app.jobStore = jobStore
		app.logger.Info("Job store initialized", "backend", "redis", "addr", app.config.Redis.Addr)

	default:
		app.jobStore = job.NewMemoryStore()
		app.logger.Info("Job store initialized", "backend", "memory")
	}

	return nil
}

// setupSummarizer builds the summarization chain. When a Gemini API key is
// configured the chain is the Gemini summarizer behind a rate limiter, with
// the extractive summarizer as fallback. Without a key the extractive
// summarizer runs alone.
func (app *application) setupSummarizer(ctx context.Context) error {
	extractive := summary.NewExtractive()

	if app.config.LLM.GeminiAPIKey == "" {
		app.summarizer = extractive
		app.summarizerName = "extractive"
		app.logger.Warn("No Gemini API key configured, using extractive summarizer only")
		return nil
	}

	geminiSummarizer, err := gemini.NewSummarizer(
		ctx,
		app.logger.With("component", "gemini_summarizer"),
		app.config.LLM,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize Gemini summarizer: %w", err)
	}

	limited := summary.WithRateLimit(geminiSummarizer, app.config.LLM.RequestsPerSecond)
	app.summarizer = summary.WithFallback(limited, extractive, app.logger)
	app.summarizerName = "gemini"
	app.logger.Info("Summarizer initialized",
		"model", app.config.LLM.ModelName,
		"requests_per_second", app.config.LLM.RequestsPerSecond)
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources. The scheduler
// stops first so no handler is mid-flight when the stores go away.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("Error closing redis client", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
