package models

import "time"

// TopicStatus is the lifecycle state of a topic.
type TopicStatus string

const (
	TopicActive    TopicStatus = "active"
	TopicCompleted TopicStatus = "completed"
)

// Topic represents a subject a user revisits on a spaced-repetition schedule
type Topic struct {
	ID              int64       `json:"id" db:"id"`
	UserID          int64       `json:"user_id" db:"user_id"`
	Title           string      `json:"title" db:"title"`
	Category        string      `json:"category" db:"category"`
	Status          TopicStatus `json:"status" db:"status"`
	LastGap         int         `json:"last_gap" db:"last_gap"`                 // Last interval used, in days
	NextReview      *time.Time  `json:"next_review" db:"next_review"`           // Nil once the topic is completed
	CustomIntervals *string     `json:"custom_intervals" db:"custom_intervals"` // Comma-separated override schedule
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// IsCompleted reports whether the topic reached its terminal state.
func (t *Topic) IsCompleted() bool {
	return t.Status == TopicCompleted
}

// Intervals returns the raw custom schedule or an empty string.
func (t *Topic) Intervals() string {
	if t.CustomIntervals == nil {
		return ""
	}
	return *t.CustomIntervals
}
