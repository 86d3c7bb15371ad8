package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/isdelr/parley-be/internal/models"
	"github.com/stretchr/testify/require"
)

func newMessageFixture(t *testing.T) (*MessageService, models.User) {
	t.Helper()
	db := newTestDB(t)
	author, err := NewUserService(db).CreateLocal("alice", "hunter22")
	require.NoError(t, err)
	return NewMessageService(db), author
}

func TestAppendRecentRoundTrip(t *testing.T) {
	s, author := newMessageFixture(t)

	appended, err := s.Append(author.ID, "  hello world  ")
	require.NoError(t, err)
	require.Equal(t, "hello world", appended.Content)
	require.Equal(t, author.ID, appended.AuthorID)
	require.Equal(t, "alice", appended.AuthorName)

	recent, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, appended.ID, recent[0].ID)
	require.Equal(t, "hello world", recent[0].Content)
}

func TestAppendRejectsEmptyContent(t *testing.T) {
	s, author := newMessageFixture(t)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := s.Append(author.ID, content)
		require.ErrorIs(t, err, ErrEmptyContent, "content %q", content)
	}

	recent, err := s.Recent(10)
	require.NoError(t, err)
	require.Empty(t, recent)
}

func TestAppendUnknownAuthor(t *testing.T) {
	s, _ := newMessageFixture(t)

	_, err := s.Append("no-such-user", "hello")
	require.ErrorIs(t, err, ErrPersistenceUnavailable)
}

func TestAppendFailureLeavesNoRow(t *testing.T) {
	db := newTestDB(t)
	s := NewMessageService(db)

	// The author lookup fails before anything is written, so a failed Append
	// must leave the log empty: a stored-but-unbroadcast message would
	// reappear in Recent and duplicate on retry.
	_, err := s.Append("ghost", "hello")
	require.ErrorIs(t, err, ErrPersistenceUnavailable)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n))
	require.Zero(t, n)
}

func TestRecentLimitAndOrder(t *testing.T) {
	s, author := newMessageFixture(t)

	for i := 0; i < 10; i++ {
		_, err := s.Append(author.ID, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	recent, err := s.Recent(4)
	require.NoError(t, err)
	require.Len(t, recent, 4)

	// Most recent four, oldest first.
	for i, msg := range recent {
		require.Equal(t, fmt.Sprintf("message %d", 6+i), msg.Content)
	}
	for i := 1; i < len(recent); i++ {
		require.False(t, recent[i].CreatedAt.Before(recent[i-1].CreatedAt))
	}
}

func TestRecentFewerThanLimit(t *testing.T) {
	s, author := newMessageFixture(t)

	_, err := s.Append(author.ID, "only one")
	require.NoError(t, err)

	recent, err := s.Recent(50)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestRecentZeroLimit(t *testing.T) {
	s, author := newMessageFixture(t)

	_, err := s.Append(author.ID, "hi")
	require.NoError(t, err)

	recent, err := s.Recent(0)
	require.NoError(t, err)
	require.Empty(t, recent)
}

func TestTimestampsNeverRunBackwards(t *testing.T) {
	s, author := newMessageFixture(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	s.nowFn = func() time.Time { return clock }

	first, err := s.Append(author.ID, "first")
	require.NoError(t, err)

	// Clock jumps backwards; the assigned timestamp must not.
	clock = base.Add(-time.Minute)
	second, err := s.Append(author.ID, "second")
	require.NoError(t, err)
	require.False(t, second.CreatedAt.Before(first.CreatedAt))

	// Same-timestamp messages come back in insertion order.
	recent, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "first", recent[0].Content)
	require.Equal(t, "second", recent[1].Content)
}
