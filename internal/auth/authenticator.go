package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/parley-be/internal/models"
	"github.com/isdelr/parley-be/internal/services"
	"github.com/rs/zerolog/log"
)

// Session is an authenticated identity bound to a bearer token.
type Session struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Authenticator turns credentials or a federated callback into a Session and
// gates every privileged operation on a live token. It is safe for concurrent
// use.
type Authenticator struct {
	users    services.UserServiceProvider
	provider FederatedProvider // nil when federated login is not configured
	secret   []byte
	tokenTTL time.Duration
	revoked  *RevocationStore
	pending  *StateStore
	nowFn    func() time.Time
}

// NewAuthenticator creates an Authenticator. provider may be nil, which
// disables federated login.
func NewAuthenticator(users services.UserServiceProvider, provider FederatedProvider, secret string) *Authenticator {
	return &Authenticator{
		users:    users,
		provider: provider,
		secret:   []byte(secret),
		tokenTTL: tokenTTLDefault,
		revoked:  NewRevocationStore(),
		pending:  NewStateStore(),
		nowFn:    time.Now,
	}
}

// LoginLocal verifies a username/password pair and issues a session.
func (a *Authenticator) LoginLocal(username, password string) (Session, error) {
	user, err := a.users.VerifyLocal(username, password)
	if err != nil {
		return Session{}, err
	}
	return a.issueSession(user)
}

// BeginFederatedLogin starts the provider round trip: it mints a single-use
// anti-forgery state nonce and returns the URL to redirect the browser to.
func (a *Authenticator) BeginFederatedLogin() (string, error) {
	if a.provider == nil {
		return "", fmt.Errorf("%w: no identity provider configured", ErrFederatedAuthFailure)
	}
	state := uuid.New().String()
	a.pending.Put(state, a.nowFn())
	return a.provider.AuthCodeURL(state), nil
}

// CompleteFederatedLogin finishes the round trip. The state must match a
// nonce issued by BeginFederatedLogin within its window; anything else is
// treated as a forged or stale callback.
func (a *Authenticator) CompleteFederatedLogin(ctx context.Context, state, code string) (Session, error) {
	if a.provider == nil {
		return Session{}, fmt.Errorf("%w: no identity provider configured", ErrFederatedAuthFailure)
	}
	if state == "" || code == "" {
		return Session{}, fmt.Errorf("%w: missing state or code", ErrFederatedAuthFailure)
	}
	if !a.pending.Consume(state, a.nowFn()) {
		return Session{}, fmt.Errorf("%w: unknown or expired state", ErrFederatedAuthFailure)
	}

	identity, err := a.provider.Exchange(ctx, code)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrFederatedAuthFailure, err)
	}
	if identity.SubjectID == "" {
		return Session{}, fmt.Errorf("%w: provider returned no subject", ErrFederatedAuthFailure)
	}

	user, err := a.users.FindOrCreateFederated(identity.Provider, identity.SubjectID, identity.Email, identity.DisplayName)
	if err != nil {
		return Session{}, err
	}
	return a.issueSession(user)
}

// Logout invalidates the token. Subsequent use of the same token fails as
// unauthenticated. Logging out with a token that is already invalid is a
// no-op.
func (a *Authenticator) Logout(token string) {
	claims, err := a.parseToken(token)
	if err != nil {
		return
	}
	a.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
	log.Info().Str("user_id", claims.UserID).Msg("Session revoked")
}

// CurrentIdentity resolves a token to its user. It has no side effects.
func (a *Authenticator) CurrentIdentity(token string) (models.User, error) {
	claims, err := a.parseToken(token)
	if err != nil {
		return models.User{}, err
	}
	if a.revoked.IsRevoked(claims.ID) {
		return models.User{}, ErrUnauthenticated
	}
	user, err := a.users.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return models.User{}, ErrUnauthenticated
		}
		return models.User{}, err
	}
	return user, nil
}

// SweepExpired drops bookkeeping for tokens and login attempts whose windows
// have lapsed. Called periodically by the background sweeper.
func (a *Authenticator) SweepExpired() (revoked, states int) {
	now := a.nowFn()
	return a.revoked.Sweep(now), a.pending.Sweep(now)
}

func (a *Authenticator) issueSession(user models.User) (Session, error) {
	token, claims, err := a.generateToken(user)
	if err != nil {
		return Session{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return Session{Token: token, User: user, ExpiresAt: claims.ExpiresAt.Time}, nil
}
