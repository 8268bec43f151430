package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studytrack/pkg/models"
)

// ReviewLogRepository handles database operations for the review history
type ReviewLogRepository struct{}

// NewReviewLogRepository creates a new repository instance
func NewReviewLogRepository() *ReviewLogRepository {
	return &ReviewLogRepository{}
}

// Create appends a review to the history
func (r *ReviewLogRepository) Create(ctx context.Context, entry *models.ReviewLog) error {
	query := DB.Rebind(`
		INSERT INTO review_logs (user_id, topic_id, gap, completed, next_review, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := DB.GetContext(ctx, &entry.ID, query,
		entry.UserID,
		entry.TopicID,
		entry.Gap,
		entry.Completed,
		utc(entry.NextReview),
		entry.ReviewedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create review log: %w", err)
	}
	return nil
}

// GetByTopicID returns the review history of a topic, newest first
func (r *ReviewLogRepository) GetByTopicID(ctx context.Context, userID, topicID int64) ([]models.ReviewLog, error) {
	logs := []models.ReviewLog{}
	query := DB.Rebind(`
		SELECT id, user_id, topic_id, gap, completed, next_review, reviewed_at
		FROM review_logs
		WHERE user_id = ? AND topic_id = ?
		ORDER BY reviewed_at DESC, id DESC
	`)
	if err := DB.SelectContext(ctx, &logs, query, userID, topicID); err != nil {
		return nil, fmt.Errorf("failed to get review logs: %w", err)
	}
	return logs, nil
}

// GetReviewTimes returns every review timestamp of a user, oldest first
func (r *ReviewLogRepository) GetReviewTimes(ctx context.Context, userID int64) ([]time.Time, error) {
	times := []time.Time{}
	query := DB.Rebind(`SELECT reviewed_at FROM review_logs WHERE user_id = ? ORDER BY reviewed_at ASC`)
	if err := DB.SelectContext(ctx, &times, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get review times: %w", err)
	}
	return times, nil
}

// CountByUser returns the number of reviews and of completing reviews for a user
func (r *ReviewLogRepository) CountByUser(ctx context.Context, userID int64) (reviews, completions int, err error) {
	var row struct {
		Reviews     int `db:"reviews"`
		Completions int `db:"completions"`
	}
	query := DB.Rebind(`
		SELECT COUNT(*) AS reviews,
			COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completions
		FROM review_logs
		WHERE user_id = ?
	`)
	if err := DB.GetContext(ctx, &row, query, userID); err != nil {
		return 0, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return row.Reviews, row.Completions, nil
}
