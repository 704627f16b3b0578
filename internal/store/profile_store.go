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

// ProfileStore persists user intake profiles (at most one row per user)
type ProfileStore struct {
	db *database.DB
}

// Get returns the user's profile, or ErrNotFound if none exists yet.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	var (
		profile   models.UserProfile
		birthDate sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, first_name, last_name, birth_date, memories, created_at, updated_at
		 FROM user_profiles WHERE user_id = ?`, userID).
		Scan(&profile.ID, &profile.UserID, &profile.FirstName, &profile.LastName,
			&birthDate, &profile.Memories, &profile.CreatedAt, &profile.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	if birthDate.Valid {
		profile.BirthDate = &birthDate.Time
	}
	return &profile, nil
}

// GetOrCreate returns the user's profile, creating an empty row lazily on
// first access.
func (s *ProfileStore) GetOrCreate(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.Get(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	profile = &models.UserProfile{
		ID:        uuid.NewString(),
		UserID:    userID,
		Memories:  "[]",
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_profiles (id, user_id, first_name, last_name, birth_date, memories, created_at, updated_at)
		 VALUES (?, ?, '', '', NULL, '[]', ?, ?)`,
		profile.ID, profile.UserID, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

// Update persists the mutable profile fields in place.
func (s *ProfileStore) Update(ctx context.Context, profile *models.UserProfile) error {
	profile.UpdatedAt = time.Now().UTC()

	var birthDate interface{}
	if profile.BirthDate != nil {
		birthDate = *profile.BirthDate
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE user_profiles
		 SET first_name = ?, last_name = ?, birth_date = ?, memories = ?, updated_at = ?
		 WHERE id = ?`,
		profile.FirstName, profile.LastName, birthDate, profile.Memories, profile.UpdatedAt, profile.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
