package models

import "time"

// Goal status values
const (
	GoalStatusActive    = "Active"
	GoalStatusCompleted = "Completed"
	GoalStatusArchived  = "Archived"
)

// Goal is a user-defined objective. Active goals are injected into the
// coaching context (newest first, capped).
type Goal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ValidGoalStatus reports whether s is one of the recognized status values.
func ValidGoalStatus(s string) bool {
	switch s {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusArchived:
		return true
	}
	return false
}
