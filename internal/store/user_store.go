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

// UserStore persists user accounts
type UserStore struct {
	db *database.DB
}

// Create inserts a new user. Returns an error if the email is taken.
func (s *UserStore) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, initial_call_completed, created_at)
		 VALUES (?, ?, ?, 0, ?)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByEmail returns the user with the given email, or ErrNotFound.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, initial_call_completed, created_at
		 FROM users WHERE email = ?`, email))
}

// GetByID returns the user with the given ID, or ErrNotFound.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, initial_call_completed, created_at
		 FROM users WHERE id = ?`, id))
}

// MarkInitialCallCompleted flags the intake call as finished for the user.
func (s *UserStore) MarkInitialCallCompleted(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET initial_call_completed = 1 WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark initial call completed: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) scanOne(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.InitialCallCompleted, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}
