package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/precishq/precis-api/internal/api"
	apiMiddleware "github.com/precishq/precis-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. It accepts the application dependencies to create handlers
// and register routes. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		&app.config.Auth,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	noteHandler := api.NewNoteHandler(app.noteService, app.logger)
	jobHandler := api.NewJobHandler(app.scheduler, app.logger)
	adminHandler := api.NewAdminHandler(app.userStore, app.noteService, app.logger)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Note endpoints
			r.Post("/notes", noteHandler.CreateNote)
			r.Get("/notes", noteHandler.ListNotes)
			r.Get("/notes/{id}", noteHandler.GetNote)

			// Job status endpoint
			r.Get("/jobs/{id}", jobHandler.GetJobStatus)

			// Admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.RequireAdmin)
				r.Get("/admin/users", adminHandler.ListUsers)
				r.Get("/admin/notes", adminHandler.ListNotes)
			})
		})
	})

	// Health check endpoint
	r.Get("/health", app.handleHealth)

	return r
}

// handleHealth reports process liveness and which summarizer backend is
// active.
func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(map[string]string{
		"status":     "ok",
		"summarizer": app.summarizerName,
	})
	if err != nil {
		app.logger.Error("Failed to write health check response", "error", err)
	}
}
