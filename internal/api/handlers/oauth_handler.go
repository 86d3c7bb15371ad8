package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/parley-be/internal/auth"
	"github.com/isdelr/parley-be/internal/services"
	"github.com/rs/zerolog/log"
)

// OAuthHandler drives the federated-login redirect round trip.
type OAuthHandler struct {
	authenticator *auth.Authenticator
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(authenticator *auth.Authenticator) *OAuthHandler {
	return &OAuthHandler{authenticator: authenticator}
}

// Begin sends the browser to the provider's consent page.
func (h *OAuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	redirectURL, err := h.authenticator.BeginFederatedLogin()
	if err != nil {
		log.Error().Err(err).Msg("Failed to start federated login")
		http.Error(w, "Federated login is not available", http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// Callback finishes the round trip: it validates the anti-forgery state,
// exchanges the code, and issues a session.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	session, err := h.authenticator.CompleteFederatedLogin(r.Context(), state, code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPersistenceUnavailable):
			log.Error().Err(err).Msg("Federated login failed: store unavailable")
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		default:
			log.Warn().Err(err).Msg("Federated login rejected")
			http.Error(w, "Federated login failed", http.StatusUnauthorized)
		}
		return
	}

	writeSession(w, session)
}
