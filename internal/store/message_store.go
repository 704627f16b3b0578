package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coachd/internal/database"
	"coachd/internal/models"
)

// duplicateWindow is the grace period within which an identical message to
// the same chat is treated as a client retry and skipped.
const duplicateWindow = time.Minute

// MessageStore persists chat messages
type MessageStore struct {
	db *database.DB
}

// Save appends a message and bumps the parent chat's updated_at in one
// transaction. An identical message saved within duplicateWindow is skipped;
// the bool result reports whether a row was written.
func (s *MessageStore) Save(ctx context.Context, userID string, chatID string, content, sender string) (bool, error) {
	var lastCreated sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM messages
		 WHERE chat_id = ? AND content = ? AND sender = ?
		 ORDER BY created_at DESC LIMIT 1`,
		chatID, content, sender).Scan(&lastCreated)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to check for duplicate message: %w", err)
	}
	if lastCreated.Valid && time.Since(lastCreated.Time) < duplicateWindow {
		return false, nil
	}

	now := time.Now().UTC()
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, user_id, chat_id, content, sender, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), userID, chatID, content, sender, now); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE chats SET updated_at = ? WHERE id = ? AND user_id = ?`,
			now, chatID, userID); err != nil {
			return fmt.Errorf("failed to touch chat: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser returns all of the user's messages in insertion order.
func (s *MessageStore) ListByUser(ctx context.Context, userID string) ([]models.Message, error) {
	return s.list(ctx,
		`SELECT id, user_id, chat_id, content, sender, created_at
		 FROM messages WHERE user_id = ? ORDER BY created_at ASC`, userID)
}

// ListByChat returns the chat's messages in insertion order.
func (s *MessageStore) ListByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	return s.list(ctx,
		`SELECT id, user_id, chat_id, content, sender, created_at
		 FROM messages WHERE chat_id = ? ORDER BY created_at ASC`, chatID)
}

// ClearByUser deletes all of the user's messages and returns the count.
func (s *MessageStore) ClearByUser(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear messages: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}

func (s *MessageStore) list(ctx context.Context, query string, args ...interface{}) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.ChatID, &msg.Content, &msg.Sender, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
