package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/isdelr/parley-be/internal/auth"
	"github.com/isdelr/parley-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles registration, login, and session endpoints.
type UserHandler struct {
	users         services.UserServiceProvider
	authenticator *auth.Authenticator
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider, authenticator *auth.Authenticator) *UserHandler {
	return &UserHandler{users: users, authenticator: authenticator}
}

// CredentialsPayload is the body for registration and login requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles new local account registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.CreateLocal(payload.Username, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateUsername):
			http.Error(w, "Username already taken", http.StatusConflict)
		case errors.Is(err, services.ErrInvalidCredentials):
			http.Error(w, "Username and password are required", http.StatusBadRequest)
		case errors.Is(err, services.ErrPersistenceUnavailable):
			log.Error().Err(err).Msg("Registration failed: store unavailable")
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		default:
			log.Error().Err(err).Str("username", payload.Username).Msg("Failed to register user")
			http.Error(w, "Failed to register user", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

// Login handles local authentication and session issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.authenticator.LoginLocal(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrPersistenceUnavailable) {
			log.Error().Err(err).Msg("Login failed: store unavailable")
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}
		log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	writeSession(w, session)
}

// Logout revokes the current session token.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing auth token", http.StatusUnauthorized)
		return
	}
	h.authenticator.Logout(token)

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Path:     "/",
	})
	w.WriteHeader(http.StatusNoContent)
}

// GetMe returns the user bound to the current session.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// writeSession sets the session cookie and returns the token and user.
func writeSession(w http.ResponseWriter, session auth.Session) {
	// Set Secure flag based on environment.
	isProd := os.Getenv("APP_ENV") == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    session.Token,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}
