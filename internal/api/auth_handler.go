package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/precishq/precis-api/internal/api/shared"
	"github.com/precishq/precis-api/internal/config"
	"github.com/precishq/precis-api/internal/domain"
	"github.com/precishq/precis-api/internal/platform/logger"
	"github.com/precishq/precis-api/internal/redact"
	"github.com/precishq/precis-api/internal/service/auth"
	"github.com/precishq/precis-api/internal/store"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	authConfig       *config.AuthConfig
	validator        *validator.Validate
	timeFunc         func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	authConfig *config.AuthConfig,
) *AuthHandler {
	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		authConfig:       authConfig,
		validator:        validator.New(),
		timeFunc:         time.Now,
	}
}

// WithTimeFunc replaces the time source used for token expiry calculations
// and returns the handler for chaining. Intended for tests.
func (h *AuthHandler) WithTimeFunc(timeFunc func() time.Time) *AuthHandler {
	h.timeFunc = timeFunc
	return h
}

// generateTokenResponse creates an access/refresh token pair for the user and
// computes the access token expiry timestamp in RFC 3339 format.
func (h *AuthHandler) generateTokenResponse(
	ctx context.Context,
	userID uuid.UUID,
	role string,
) (accessToken, refreshToken, expiresAt string, err error) {
	accessToken, err = h.jwtService.GenerateToken(ctx, userID, role)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err = h.jwtService.GenerateRefreshToken(ctx, userID, role)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	lifetime := time.Duration(h.authConfig.TokenLifetimeMinutes) * time.Minute
	expiresAt = h.timeFunc().Add(lifetime).UTC().Format(time.RFC3339)

	return accessToken, refreshToken, expiresAt, nil
}

// Register handles POST /auth/register requests. New accounts always start
// with the agent role; admin accounts are provisioned out of band.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), slog.Default())

	// Parse request body
	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+SanitizeValidationError(err))
		return
	}

	// Create user entity with the plaintext password; the store hashes it
	// before persisting.
	user, err := domain.NewUser(req.Email, req.Password)
	if err != nil {
		log.Warn("invalid user data during registration", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid user data: "+err.Error())
		return
	}

	if err := h.userStore.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict, "Email already exists")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	accessToken, refreshToken, expiresAt, err := h.generateTokenResponse(
		r.Context(),
		user.ID,
		string(user.Role),
	)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w,
			r,
			http.StatusInternalServerError,
			"Failed to generate authentication token",
			err,
		)
		return
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))

	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}

// Login handles POST /auth/login requests
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), slog.Default())

	// Parse request body
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+SanitizeValidationError(err))
		return
	}

	user, err := h.userStore.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Same response as a bad password so the endpoint does not
			// reveal which emails are registered.
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to authenticate user", err)
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		log.Debug("password mismatch during login", slog.String("user_id", user.ID.String()))
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	accessToken, refreshToken, expiresAt, err := h.generateTokenResponse(
		r.Context(),
		user.ID,
		string(user.Role),
	)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w,
			r,
			http.StatusInternalServerError,
			"Failed to generate authentication token",
			err,
		)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}

// RefreshToken handles POST /auth/refresh requests. A valid refresh token
// yields a brand new access/refresh pair; the role travels inside the token,
// so no store lookup is needed.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	// Parse request body
	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+SanitizeValidationError(err))
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredRefreshToken),
			errors.Is(err, auth.ErrInvalidRefreshToken),
			errors.Is(err, auth.ErrWrongTokenType):
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid refresh token", err)
		default:
			shared.RespondWithErrorAndLog(
				w,
				r,
				http.StatusInternalServerError,
				"Failed to validate refresh token",
				err,
			)
		}
		return
	}

	accessToken, refreshToken, expiresAt, err := h.generateTokenResponse(
		r.Context(),
		claims.UserID,
		claims.Role,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(
			w,
			r,
			http.StatusInternalServerError,
			"Failed to generate authentication token",
			err,
		)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}
