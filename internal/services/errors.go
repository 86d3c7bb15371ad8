package services

import "errors"

// Sentinel errors shared across the service layer. Handlers match these with
// errors.Is to pick HTTP statuses; the hub matches them to decide what a
// sender is told.
var (
	// ErrDuplicateUsername is returned when registering a username that is
	// already taken.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrInvalidCredentials is returned for both an unknown username and a
	// wrong password, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmptyContent is returned when a message is empty after trimming.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrPersistenceUnavailable is returned when the backing store cannot
	// complete a write or read.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
)
