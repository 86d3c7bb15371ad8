package services

import (
	"database/sql"
	"testing"

	"github.com/isdelr/parley-be/internal/database"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	// A pool of in-memory connections would each see their own database.
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func countUsers(t *testing.T, db *sql.DB, where string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&n))
	return n
}

func TestCreateLocal(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db)

	user, err := s.CreateLocal("alice", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.NotNil(t, user.Username)
	require.Equal(t, "alice", *user.Username)

	// The stored hash must verify the password and must not be the plaintext.
	require.NotNil(t, user.PasswordHash)
	require.NotEqual(t, "hunter22", *user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte("hunter22")))
}

func TestCreateLocalDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db)

	_, err := s.CreateLocal("alice", "first")
	require.NoError(t, err)

	_, err = s.CreateLocal("alice", "second")
	require.ErrorIs(t, err, ErrDuplicateUsername)
	require.Equal(t, 1, countUsers(t, db, "username = ?", "alice"))
}

func TestCreateLocalRejectsBlankCredentials(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db)

	_, err := s.CreateLocal("", "password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.CreateLocal("bob", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyLocal(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db)

	created, err := s.CreateLocal("alice", "hunter22")
	require.NoError(t, err)

	user, err := s.VerifyLocal("alice", "hunter22")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)
}

func TestVerifyLocalUniformFailure(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db)

	_, err := s.CreateLocal("alice", "hunter22")
	require.NoError(t, err)

	// Wrong password and unknown user fail identically.
	_, wrongPass := s.VerifyLocal("alice", "not-it")
	_, noUser := s.VerifyLocal("mallory", "whatever")
	require.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	require.ErrorIs(t, noUser, ErrInvalidCredentials)
	require.Equal(t, wrongPass, noUser)
}

func TestVerifyLocalFederatedOnlyAccount(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db)

	user, err := s.FindOrCreateFederated("google", "g123", "a@x.com", "Alice")
	require.NoError(t, err)
	require.Nil(t, user.PasswordHash)

	_, err = s.VerifyLocal("Alice", "anything")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestFindOrCreateFederatedIdempotent(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db)

	first, err := s.FindOrCreateFederated("google", "g123", "a@x.com", "Alice")
	require.NoError(t, err)

	second, err := s.FindOrCreateFederated("google", "g123", "a@x.com", "Alice")
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, countUsers(t, db, "oauth_provider = ? AND oauth_id = ?", "google", "g123"))
}

func TestFindOrCreateFederatedUpgradesByEmail(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db)

	local, err := s.CreateLocal("alice", "hunter22")
	require.NoError(t, err)
	_, err = db.Exec("UPDATE users SET email = ? WHERE id = ?", "a@x.com", local.ID)
	require.NoError(t, err)

	upgraded, err := s.FindOrCreateFederated("google", "g123", "a@x.com", "Alice")
	require.NoError(t, err)
	require.Equal(t, local.ID, upgraded.ID)
	require.True(t, upgraded.IsFederated())

	// The local password survives the upgrade.
	_, err = s.VerifyLocal("alice", "hunter22")
	require.NoError(t, err)
}

func TestFindOrCreateFederatedDoesNotRelinkForeignEmail(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db)

	first, err := s.FindOrCreateFederated("google", "g123", "a@x.com", "Alice")
	require.NoError(t, err)

	// Same email asserted by a different federated identity must not take
	// over the existing link.
	other, err := s.FindOrCreateFederated("github", "h999", "a@x.com", "Alice")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)
}

func TestFindOrCreateFederatedUsernameCollision(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db)

	_, err := s.CreateLocal("Alice", "hunter22")
	require.NoError(t, err)

	// Display name clashes with an existing username; the federated account
	// is created without one rather than failing.
	user, err := s.FindOrCreateFederated("google", "g123", "", "Alice")
	require.NoError(t, err)
	require.Nil(t, user.Username)
	require.Equal(t, user.ID, user.DisplayName())
}

func TestGetUserByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	s := NewUserService(db)

	_, err := s.GetUserByID("missing")
	require.ErrorIs(t, err, ErrNotFound)
}
