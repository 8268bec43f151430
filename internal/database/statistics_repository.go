package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studytrack/pkg/models"
)

// StatisticsRepository handles database operations for statistics
type StatisticsRepository struct{}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository() *StatisticsRepository {
	return &StatisticsRepository{}
}

// IncrementReviews bumps the review counters of a topic, creating the row on first use
func (r *StatisticsRepository) IncrementReviews(ctx context.Context, userID, topicID int64, completed bool) error {
	completion := 0
	if completed {
		completion = 1
	}
	now := time.Now().UTC()

	query := DB.Rebind(`
		INSERT INTO statistics (user_id, topic_id, total_reviews, completions, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT (user_id, topic_id) DO UPDATE SET
			total_reviews = statistics.total_reviews + 1,
			completions = statistics.completions + excluded.completions,
			updated_at = excluded.updated_at
	`)
	if _, err := DB.ExecContext(ctx, query, userID, topicID, completion, now, now); err != nil {
		return fmt.Errorf("failed to update statistics: %w", err)
	}
	return nil
}

// GetByUserAndTopic returns statistics for a specific user and topic
func (r *StatisticsRepository) GetByUserAndTopic(ctx context.Context, userID, topicID int64) (*models.Statistics, error) {
	var stats []models.Statistics
	query := DB.Rebind(`
		SELECT s.id, s.user_id, s.topic_id, t.title AS topic_title, s.total_reviews, s.completions,
			s.created_at, s.updated_at
		FROM statistics s
		JOIN topics t ON s.topic_id = t.id
		WHERE s.user_id = ? AND s.topic_id = ?
	`)
	if err := DB.SelectContext(ctx, &stats, query, userID, topicID); err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	if len(stats) == 0 {
		// Nothing reviewed yet
		return &models.Statistics{UserID: userID, TopicID: topicID}, nil
	}
	return &stats[0], nil
}

// GetUserStatistics returns all statistics for a user, most reviewed first
func (r *StatisticsRepository) GetUserStatistics(ctx context.Context, userID int64) ([]models.Statistics, error) {
	stats := []models.Statistics{}
	query := DB.Rebind(`
		SELECT s.id, s.user_id, s.topic_id, t.title AS topic_title, s.total_reviews, s.completions,
			s.created_at, s.updated_at
		FROM statistics s
		JOIN topics t ON s.topic_id = t.id
		WHERE s.user_id = ?
		ORDER BY s.total_reviews DESC, s.topic_id ASC
	`)
	if err := DB.SelectContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user statistics: %w", err)
	}
	return stats, nil
}
