package models

import "time"

// Memory is a durable, user-scoped fact extracted from conversation for reuse
// in future context. Rows are append-only: they are never mutated and only
// removed by explicit user action. Near-duplicate memories may coexist.
type Memory struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// Extraction job status values
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ExtractionJob is a queued memory-extraction unit of work. Jobs are enqueued
// after a chat exchange completes and drained by a background worker with its
// own persistence handle.
type ExtractionJob struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	ChatID        string     `json:"chat_id"`
	UserMessage   string     `json:"-"`
	AssistantText string     `json:"-"`
	Status        string     `json:"status"`
	AttemptCount  int        `json:"attempt_count"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}
