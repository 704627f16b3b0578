// Package store is the persistence gateway: row-level CRUD for every entity,
// scoped by user ID. List queries return empty slices, never errors, for
// "nothing found". Primary writes run in transactions and roll back on error.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"coachd/internal/database"
)

// Stores bundles all entity stores over one shared connection pool.
// Background workers receive their own Stores value so a detached unit of
// work never borrows a request-scoped handle.
type Stores struct {
	Users     *UserStore
	Profiles  *ProfileStore
	Chats     *ChatStore
	Messages  *MessageStore
	Goals     *GoalStore
	Memories  *MemoryStore
	Materials *MaterialStore
	Jobs      *JobStore
}

// New creates all stores over the given database.
func New(db *database.DB) *Stores {
	return &Stores{
		Users:     &UserStore{db: db},
		Profiles:  &ProfileStore{db: db},
		Chats:     &ChatStore{db: db},
		Messages:  &MessageStore{db: db},
		Goals:     &GoalStore{db: db},
		Memories:  &MemoryStore{db: db},
		Materials: &MaterialStore{db: db},
		Jobs:      &JobStore{db: db},
	}
}

// withTx runs fn inside a transaction, rolling back on error.
func withTx(ctx context.Context, db *database.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = sql.ErrNoRows
