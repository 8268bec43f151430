package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/studytrack/pkg/models"
)

const topicColumns = `id, user_id, title, category, status, last_gap, next_review, custom_intervals, created_at, updated_at`

// TopicRepository handles database operations for topics
type TopicRepository struct{}

// NewTopicRepository creates a new repository instance
func NewTopicRepository() *TopicRepository {
	return &TopicRepository{}
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Create inserts a new topic and fills in its ID
func (r *TopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	now := time.Now().UTC()
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = now
	}
	topic.UpdatedAt = topic.CreatedAt
	if topic.Status == "" {
		topic.Status = models.TopicActive
	}

	query := DB.Rebind(`
		INSERT INTO topics (user_id, title, category, status, last_gap, next_review, custom_intervals, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := DB.GetContext(ctx, &topic.ID, query,
		topic.UserID,
		topic.Title,
		topic.Category,
		topic.Status,
		topic.LastGap,
		utc(topic.NextReview),
		topic.CustomIntervals,
		topic.CreatedAt.UTC(),
		topic.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}
	return nil
}

// GetByID returns a topic owned by userID
func (r *TopicRepository) GetByID(ctx context.Context, userID, topicID int64) (*models.Topic, error) {
	var topic models.Topic
	query := DB.Rebind(`SELECT ` + topicColumns + ` FROM topics WHERE id = ? AND user_id = ?`)
	err := DB.GetContext(ctx, &topic, query, topicID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return &topic, nil
}

// GetAllByUserID returns all topics for a given user, soonest review first
func (r *TopicRepository) GetAllByUserID(ctx context.Context, userID int64) ([]models.Topic, error) {
	topics := []models.Topic{}
	query := DB.Rebind(`
		SELECT ` + topicColumns + `
		FROM topics
		WHERE user_id = ?
		ORDER BY status ASC, next_review ASC, id ASC
	`)
	if err := DB.SelectContext(ctx, &topics, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	return topics, nil
}

// GetDue returns the active topics of a user whose review time has passed
func (r *TopicRepository) GetDue(ctx context.Context, userID int64, now time.Time) ([]models.Topic, error) {
	topics := []models.Topic{}
	query := DB.Rebind(`
		SELECT ` + topicColumns + `
		FROM topics
		WHERE user_id = ?
		AND status = ?
		AND next_review <= ?
		ORDER BY next_review ASC, id ASC
	`)
	if err := DB.SelectContext(ctx, &topics, query, userID, models.TopicActive, now.UTC()); err != nil {
		return nil, fmt.Errorf("failed to get due topics: %w", err)
	}
	return topics, nil
}

// CountDueByUser returns the number of due topics per user
func (r *TopicRepository) CountDueByUser(ctx context.Context, now time.Time) (map[int64]int, error) {
	var rows []struct {
		UserID int64 `db:"user_id"`
		Count  int   `db:"due"`
	}
	query := DB.Rebind(`
		SELECT user_id, COUNT(*) AS due
		FROM topics
		WHERE status = ? AND next_review <= ?
		GROUP BY user_id
	`)
	if err := DB.SelectContext(ctx, &rows, query, models.TopicActive, now.UTC()); err != nil {
		return nil, fmt.Errorf("failed to count due topics: %w", err)
	}

	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.UserID] = row.Count
	}
	return counts, nil
}

// UpdateReviewState writes the fields changed by a review in a single statement
func (r *TopicRepository) UpdateReviewState(ctx context.Context, topic *models.Topic) error {
	query := DB.Rebind(`
		UPDATE topics
		SET status = ?,
			last_gap = ?,
			next_review = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
	`)
	return r.exec(ctx, "update topic", query,
		topic.Status,
		topic.LastGap,
		utc(topic.NextReview),
		time.Now().UTC(),
		topic.ID,
		topic.UserID,
	)
}

// UpdateIntervals replaces the custom schedule of a topic; nil restores the default
func (r *TopicRepository) UpdateIntervals(ctx context.Context, userID, topicID int64, intervals *string) error {
	query := DB.Rebind(`
		UPDATE topics
		SET custom_intervals = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
	`)
	return r.exec(ctx, "update intervals", query, intervals, time.Now().UTC(), topicID, userID)
}

// Reactivate puts a topic back at the start of its schedule, due at now
func (r *TopicRepository) Reactivate(ctx context.Context, userID, topicID int64, now time.Time) error {
	query := DB.Rebind(`
		UPDATE topics
		SET status = ?,
			last_gap = 0,
			next_review = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
	`)
	return r.exec(ctx, "reactivate topic", query, models.TopicActive, now.UTC(), time.Now().UTC(), topicID, userID)
}

func (r *TopicRepository) exec(ctx context.Context, action, query string, args ...interface{}) error {
	result, err := DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a topic together with its review history and statistics
func (r *TopicRepository) Delete(ctx context.Context, userID, topicID int64) error {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM review_logs WHERE user_id = ? AND topic_id = ?"), userID, topicID); err != nil {
		return fmt.Errorf("failed to delete review logs: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM statistics WHERE user_id = ? AND topic_id = ?"), userID, topicID); err != nil {
		return fmt.Errorf("failed to delete statistics: %w", err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM topics WHERE id = ? AND user_id = ?"), topicID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
