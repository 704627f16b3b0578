package models

import "time"

// Chat is a named conversation stream owned by a user
type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message sender values
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message is a single persisted chat message. Messages are append-only and
// never mutated after creation.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ChatID    string    `json:"chat_id"`
	Content   string    `json:"text"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"timestamp"`
}
