package services

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/parley-be/internal/models"
)

// MessageServiceProvider defines the interface for the message log.
type MessageServiceProvider interface {
	Append(authorID, content string) (models.Message, error)
	Recent(limit int) ([]models.Message, error)
}

// MessageService is an append-only log of chat messages. Timestamps assigned
// by Append never decrease; messages stamped in the same millisecond are
// ordered by the store's insertion sequence.
type MessageService struct {
	db *sql.DB

	mu     sync.Mutex
	lastTS time.Time
	nowFn  func() time.Time
}

// NewMessageService creates a new MessageService.
func NewMessageService(db *sql.DB) *MessageService {
	return &MessageService{db: db, nowFn: time.Now}
}

// nextTimestamp returns a wall-clock timestamp clamped to never run backwards,
// even if the system clock does.
func (s *MessageService) nextTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.nowFn().UTC().Truncate(time.Millisecond)
	if ts.Before(s.lastTS) {
		ts = s.lastTS
	}
	s.lastTS = ts
	return ts
}

// Append validates, timestamps, and durably stores one message. The row is
// committed before Append returns, so a Recent call issued after a broadcast
// of this message always includes it.
func (s *MessageService) Append(authorID, content string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, ErrEmptyContent
	}

	msg := models.Message{
		ID:       uuid.New().String(),
		Content:  content,
		AuthorID: authorID,
	}

	// Resolve the attribution first: nothing may be written for an author
	// that cannot be found, and a failure after the insert would leave a
	// stored message the sender is told was never saved.
	row := s.db.QueryRow(`SELECT COALESCE(username, COALESCE(email, id)) FROM users WHERE id = ?`, authorID)
	if err := row.Scan(&msg.AuthorName); err != nil {
		return models.Message{}, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}

	msg.CreatedAt = s.nextTimestamp()
	res, err := s.db.Exec("INSERT INTO messages(id, content, created_at, author_id) VALUES(?, ?, ?, ?)",
		msg.ID, msg.Content, msg.CreatedAt.UnixMilli(), msg.AuthorID)
	if err != nil {
		return models.Message{}, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	if seq, err := res.LastInsertId(); err == nil {
		msg.Seq = seq
	}
	return msg, nil
}

// Recent returns at most limit of the newest messages, oldest first.
func (s *MessageService) Recent(limit int) ([]models.Message, error) {
	if limit <= 0 {
		return []models.Message{}, nil
	}

	rows, err := s.db.Query(`
		SELECT m.seq, m.id, m.content, m.created_at, m.author_id,
		       COALESCE(u.username, COALESCE(u.email, u.id))
		FROM messages m
		JOIN users u ON u.id = m.author_id
		ORDER BY m.created_at DESC, m.seq DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var createdMilli int64
		if err := rows.Scan(&msg.Seq, &msg.ID, &msg.Content, &createdMilli, &msg.AuthorID, &msg.AuthorName); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
		}
		msg.CreatedAt = time.UnixMilli(createdMilli).UTC()
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}

	// Query returned newest first; callers want oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
