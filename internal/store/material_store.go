package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coachd/internal/database"
	"coachd/internal/models"
)

// ErrInvalidFeedback marks feedback rejected by validation rather than by
// a storage failure.
var ErrInvalidFeedback = errors.New("invalid feedback")

// MaterialStore persists the book/video library and feedback rows
type MaterialStore struct {
	db *database.DB
}

// CreateBook inserts a book recommendation.
func (s *MaterialStore) CreateBook(ctx context.Context, book *models.Book) (*models.Book, error) {
	book.ID = uuid.NewString()
	book.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO books (id, user_id, title, author, description, summary, chat, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.UserID, book.Title, book.Author, book.Description, book.Summary, book.Chat, book.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return book, nil
}

// ListBooks returns the user's books, newest first.
func (s *MaterialStore) ListBooks(ctx context.Context, userID string) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, author, description, summary, chat, created_at
		 FROM books WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var book models.Book
		if err := rows.Scan(&book.ID, &book.UserID, &book.Title, &book.Author,
			&book.Description, &book.Summary, &book.Chat, &book.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// CreateVideo inserts a video recommendation.
func (s *MaterialStore) CreateVideo(ctx context.Context, video *models.Video) (*models.Video, error) {
	video.ID = uuid.NewString()
	video.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (id, user_id, title, url, description, thumbnail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		video.ID, video.UserID, video.Title, video.URL, video.Description, video.Thumbnail, video.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}
	return video, nil
}

// ListVideos returns the user's videos, newest first.
func (s *MaterialStore) ListVideos(ctx context.Context, userID string) ([]models.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, url, description, thumbnail, created_at
		 FROM videos WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.ID, &video.UserID, &video.Title, &video.URL,
			&video.Description, &video.Thumbnail, &video.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// CreateFeedback records a material rating. Ownership of the referenced
// material is the caller's responsibility.
func (s *MaterialStore) CreateFeedback(ctx context.Context, fb *models.MaterialFeedback) (*models.MaterialFeedback, error) {
	if fb.MaterialType != models.MaterialTypeBook && fb.MaterialType != models.MaterialTypeVideo {
		return nil, fmt.Errorf("%w: unknown material type %q", ErrInvalidFeedback, fb.MaterialType)
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidFeedback)
	}

	now := time.Now().UTC()
	fb.ID = uuid.NewString()
	fb.CreatedAt = now
	fb.UpdatedAt = now

	var bookID, videoID interface{}
	if fb.BookID != "" {
		bookID = fb.BookID
	}
	if fb.VideoID != "" {
		videoID = fb.VideoID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO material_feedbacks (id, user_id, material_type, book_id, video_id, rating, review, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.UserID, fb.MaterialType, bookID, videoID, fb.Rating, fb.Review, fb.Completed, fb.CreatedAt, fb.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}
	return fb, nil
}
