package models

import "time"

// Message is a single chat utterance. Messages are immutable once written.
// Seq is the insertion sequence assigned by the store; it breaks ordering ties
// between messages that share a timestamp.
type Message struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Seq        int64     `json:"-"`
}
