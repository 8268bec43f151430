package models

import "time"

// Statistics tracks a user's review counters for one topic
type Statistics struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	TopicID      int64     `json:"topic_id" db:"topic_id"`
	TopicTitle   string    `json:"topic_title" db:"topic_title"`
	TotalReviews int       `json:"total_reviews" db:"total_reviews"`
	Completions  int       `json:"completions" db:"completions"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
