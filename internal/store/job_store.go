package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coachd/internal/database"
	"coachd/internal/models"
)

// Limits on extraction job volume per user, to keep a chat loop from
// flooding the queue.
const MaxPendingJobsPerUser = 50

// JobStore persists queued memory-extraction jobs
type JobStore struct {
	db *database.DB
}

// Enqueue creates a pending extraction job for the exchange.
func (s *JobStore) Enqueue(ctx context.Context, userID, chatID, userMessage, assistantText string) (*models.ExtractionJob, error) {
	var pending int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM extraction_jobs WHERE user_id = ? AND status = ?`,
		userID, models.JobStatusPending).Scan(&pending)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending jobs: %w", err)
	}
	if pending >= MaxPendingJobsPerUser {
		return nil, fmt.Errorf("too many pending extraction jobs (%d), please wait", pending)
	}

	job := &models.ExtractionJob{
		ID:            uuid.NewString(),
		UserID:        userID,
		ChatID:        chatID,
		UserMessage:   userMessage,
		AssistantText: assistantText,
		Status:        models.JobStatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO extraction_jobs (id, user_id, chat_id, user_message, assistant_text, status, attempt_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		job.ID, job.UserID, job.ChatID, job.UserMessage, job.AssistantText, job.Status, job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert extraction job: %w", err)
	}
	return job, nil
}

// ListPending returns pending jobs in enqueue order.
func (s *JobStore) ListPending(ctx context.Context) ([]models.ExtractionJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, chat_id, user_message, assistant_text, status, attempt_count, error_message, created_at
		 FROM extraction_jobs WHERE status = ? ORDER BY created_at ASC`, models.JobStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.ExtractionJob{}
	for rows.Next() {
		var job models.ExtractionJob
		if err := rows.Scan(&job.ID, &job.UserID, &job.ChatID, &job.UserMessage, &job.AssistantText,
			&job.Status, &job.AttemptCount, &job.ErrorMessage, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkProcessing flags a job as picked up by a worker.
func (s *JobStore) MarkProcessing(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE extraction_jobs SET status = ? WHERE id = ?`, models.JobStatusProcessing, jobID)
	return err
}

// MarkCompleted flags a job as done.
func (s *JobStore) MarkCompleted(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE extraction_jobs SET status = ?, processed_at = ? WHERE id = ?`,
		models.JobStatusCompleted, time.Now().UTC(), jobID)
	return err
}

// MarkFailed records the failure and increments the attempt count.
func (s *JobStore) MarkFailed(ctx context.Context, jobID, errorMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE extraction_jobs SET status = ?, error_message = ?, attempt_count = attempt_count + 1 WHERE id = ?`,
		models.JobStatusFailed, errorMsg, jobID)
	return err
}
