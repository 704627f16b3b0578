package models

import "time"

// User represents a registered account
type User struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	PasswordHash         string    `json:"-"`
	InitialCallCompleted bool      `json:"initial_call_completed"`
	CreatedAt            time.Time `json:"created_at"`
}

// UserProfile holds the structured facts collected during the initial intake
// call. At most one row exists per user; it is created lazily on the first
// profile update and mutated in place afterwards.
type UserProfile struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Memories  string     `json:"memories"` // JSON array of free-form intake notes
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IntakeComplete reports whether the required profile fields are all filled.
// Memory count is checked separately by the intake service.
func (p *UserProfile) IntakeComplete() bool {
	return p != nil && p.FirstName != "" && p.LastName != "" && p.BirthDate != nil
}
