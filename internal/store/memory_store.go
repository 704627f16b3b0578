package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coachd/internal/database"
	"coachd/internal/models"
)

// MemoryStore persists extracted memories. Rows are append-only; no
// deduplication is attempted.
type MemoryStore struct {
	db *database.DB
}

// CreateBatch inserts one memory row per entry in a single transaction.
// Either all rows are written or none are.
func (s *MemoryStore) CreateBatch(ctx context.Context, userID string, contents []string) error {
	if len(contents) == 0 {
		return nil
	}

	now := time.Now().UTC()
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, content := range contents {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO memories (id, user_id, content, created_at) VALUES (?, ?, ?, ?)`,
				uuid.NewString(), userID, content, now); err != nil {
				return fmt.Errorf("failed to insert memory: %w", err)
			}
		}
		return nil
	})
}

// List returns all of the user's memories, newest first.
func (s *MemoryStore) List(ctx context.Context, userID string) ([]models.Memory, error) {
	return s.list(ctx,
		`SELECT id, user_id, content, created_at
		 FROM memories WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// ListRecent returns up to limit of the user's newest memories.
func (s *MemoryStore) ListRecent(ctx context.Context, userID string, limit int) ([]models.Memory, error) {
	return s.list(ctx,
		`SELECT id, user_id, content, created_at
		 FROM memories WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
}

// Count returns the user's total memory count.
func (s *MemoryStore) Count(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memories: %w", err)
	}
	return count, nil
}

// Delete removes a memory by explicit user action.
func (s *MemoryStore) Delete(ctx context.Context, userID, memoryID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE id = ? AND user_id = ?`, memoryID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MemoryStore) list(ctx context.Context, query string, args ...interface{}) ([]models.Memory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	memories := []models.Memory{}
	for rows.Next() {
		var mem models.Memory
		if err := rows.Scan(&mem.ID, &mem.UserID, &mem.Content, &mem.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, mem)
	}
	return memories, rows.Err()
}
