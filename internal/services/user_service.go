package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/parley-be/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for the credential store.
type UserServiceProvider interface {
	GetUserByID(id string) (models.User, error)
	CreateLocal(username, password string) (models.User, error)
	VerifyLocal(username, password string) (models.User, error)
	FindOrCreateFederated(provider, subjectID, email, displayName string) (models.User, error)
}

// UserService owns user identity records: local username/password accounts and
// accounts created through a federated identity provider.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = "id, username, email, password_hash, oauth_provider, oauth_id, created_at"

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.OAuthProvider, &user.OAuthID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (s *UserService) getUserByUsername(username string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

func (s *UserService) getUserByEmail(email string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

func (s *UserService) getUserByFederatedID(provider, subjectID string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE oauth_provider = ? AND oauth_id = ?",
		provider, subjectID)
	return scanUser(row)
}

// CreateLocal registers a new local account, hashing the password. The
// plaintext password is never stored. Returns ErrDuplicateUsername if the
// username is taken.
func (s *UserService) CreateLocal(username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	hash := string(hashedPassword)
	user := models.User{
		ID:           uuid.New().String(),
		Username:     &username,
		PasswordHash: &hash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.Exec("INSERT INTO users(id, username, password_hash, created_at) VALUES(?, ?, ?, ?)",
		user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	return s.GetUserByID(user.ID)
}

// VerifyLocal checks a username/password pair. The same ErrInvalidCredentials
// comes back whether the user is missing or the password is wrong.
func (s *UserService) VerifyLocal(username, password string) (models.User, error) {
	user, err := s.getUserByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Burn a comparison anyway so timing does not reveal whether the
			// account exists.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if user.PasswordHash == nil {
		// Federated-only account; it has no password to verify.
		return models.User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// FindOrCreateFederated resolves a federated identity to a local user record.
// Lookup order: (provider, subject) match, then email match with provider
// fields attached to the existing account, then a fresh passwordless account.
// Repeated calls with the same (provider, subject) return the same user.
func (s *UserService) FindOrCreateFederated(provider, subjectID, email, displayName string) (models.User, error) {
	user, err := s.getUserByFederatedID(provider, subjectID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	if email != "" {
		existing, err := s.getUserByEmail(email)
		if err == nil {
			if existing.IsFederated() {
				// Same email, different federated identity. Do not hijack the
				// existing link; mint a separate account instead.
				return s.createFederated(provider, subjectID, "", displayName)
			}
			log.Warn().Str("user_id", existing.ID).Str("provider", provider).
				Msg("Attaching federated identity to existing account by email match")
			_, err = s.db.Exec("UPDATE users SET oauth_provider = ?, oauth_id = ? WHERE id = ?",
				provider, subjectID, existing.ID)
			if err != nil {
				return models.User{}, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
			}
			return s.GetUserByID(existing.ID)
		}
		if !errors.Is(err, ErrNotFound) {
			return models.User{}, err
		}
	}

	return s.createFederated(provider, subjectID, email, displayName)
}

func (s *UserService) createFederated(provider, subjectID, email, displayName string) (models.User, error) {
	id := uuid.New().String()
	var emailPtr, usernamePtr *string
	if email != "" {
		emailPtr = &email
	}
	if displayName != "" {
		// Best-effort username; on collision the account is created without one.
		name := strings.TrimSpace(displayName)
		if name != "" {
			if _, err := s.getUserByUsername(name); errors.Is(err, ErrNotFound) {
				usernamePtr = &name
			}
		}
	}

	_, err := s.db.Exec("INSERT INTO users(id, username, email, oauth_provider, oauth_id, created_at) VALUES(?, ?, ?, ?, ?, ?)",
		id, usernamePtr, emailPtr, provider, subjectID, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent callback for the same identity.
			return s.getUserByFederatedID(provider, subjectID)
		}
		return models.User{}, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	return s.GetUserByID(id)
}

// dummyHash is a valid bcrypt hash of an unguessable value, used to equalize
// timing for lookups of nonexistent users.
var dummyHash = func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	return h
}()

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
