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

// GoalStore persists user goals
type GoalStore struct {
	db *database.DB
}

// Create inserts a new goal with status Active.
func (s *GoalStore) Create(ctx context.Context, userID, title, description string) (*models.Goal, error) {
	goal := &models.Goal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      models.GoalStatusActive,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, title, description, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.UserID, goal.Title, goal.Description, goal.Status, goal.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return goal, nil
}

// List returns all of the user's goals, newest first.
func (s *GoalStore) List(ctx context.Context, userID string) ([]models.Goal, error) {
	return s.list(ctx,
		`SELECT id, user_id, title, description, status, created_at
		 FROM goals WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// ListActive returns up to limit of the user's most recently created goals
// with status Active.
func (s *GoalStore) ListActive(ctx context.Context, userID string, limit int) ([]models.Goal, error) {
	return s.list(ctx,
		`SELECT id, user_id, title, description, status, created_at
		 FROM goals WHERE user_id = ? AND status = ?
		 ORDER BY created_at DESC LIMIT ?`, userID, models.GoalStatusActive, limit)
}

// UpdateStatus sets the goal's status and returns the updated row.
func (s *GoalStore) UpdateStatus(ctx context.Context, userID, goalID, status string) (*models.Goal, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE goals SET status = ? WHERE id = ? AND user_id = ?`,
		status, goalID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	var goal models.Goal
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, status, created_at
		 FROM goals WHERE id = ? AND user_id = ?`, goalID, userID).
		Scan(&goal.ID, &goal.UserID, &goal.Title, &goal.Description, &goal.Status, &goal.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan goal: %w", err)
	}
	return &goal, nil
}

// Delete removes a goal.
func (s *GoalStore) Delete(ctx context.Context, userID, goalID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GoalStore) list(ctx context.Context, query string, args ...interface{}) ([]models.Goal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := []models.Goal{}
	for rows.Next() {
		var goal models.Goal
		if err := rows.Scan(&goal.ID, &goal.UserID, &goal.Title, &goal.Description, &goal.Status, &goal.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}
