package models

import "time"

// Material type values for feedback rows
const (
	MaterialTypeBook  = "book"
	MaterialTypeVideo = "video"
)

// Book is a reading recommendation in the user's material library
type Book struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Chat        string    `json:"chat,omitempty"` // serialized discussion about this book
	CreatedAt   time.Time `json:"createdAt"`
}

// Video is a video recommendation in the user's material library
type Video struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MaterialFeedback records a user's rating of a book or video. Exactly one of
// BookID/VideoID is set, matching MaterialType.
type MaterialFeedback struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	MaterialType string    `json:"material_type"`
	BookID       string    `json:"book_id,omitempty"`
	VideoID      string    `json:"video_id,omitempty"`
	Rating       int       `json:"rating"`
	Review       string    `json:"review,omitempty"`
	Completed    bool      `json:"completed"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
