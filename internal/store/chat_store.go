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

// ChatStore persists named conversation streams
type ChatStore struct {
	db *database.DB
}

// Create inserts a new chat for the user.
func (s *ChatStore) Create(ctx context.Context, userID, title string) (*models.Chat, error) {
	now := time.Now().UTC()
	chat := &models.Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chats (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		chat.ID, chat.UserID, chat.Title, chat.CreatedAt, chat.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

// Get returns the chat if it exists and belongs to the user.
func (s *ChatStore) Get(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM chats WHERE id = ? AND user_id = ?`,
		chatID, userID).
		Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan chat: %w", err)
	}
	return &chat, nil
}

// List returns the user's chats, most recently updated first.
func (s *ChatStore) List(ctx context.Context, userID string) ([]models.Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at
		 FROM chats WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		var chat models.Chat
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// Rename updates the chat title.
func (s *ChatStore) Rename(ctx context.Context, userID, chatID, title string) (*models.Chat, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE chats SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		title, time.Now().UTC(), chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to rename chat: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, userID, chatID)
}

// Delete removes the chat and, via foreign keys, its messages.
func (s *ChatStore) Delete(ctx context.Context, userID, chatID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM chats WHERE id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
