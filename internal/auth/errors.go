package auth

import "errors"

var (
	// ErrUnauthenticated is returned when a session token is missing,
	// malformed, expired, or revoked by logout.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrFederatedAuthFailure covers every way the provider round trip can
	// go wrong: unknown or expired state, provider error, exchange failure.
	ErrFederatedAuthFailure = errors.New("federated authentication failed")
)
