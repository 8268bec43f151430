package models

import "time"

// ReviewLog records a single completed review of a topic
type ReviewLog struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	TopicID    int64      `json:"topic_id" db:"topic_id"`
	Gap        int        `json:"gap" db:"gap"`
	Completed  bool       `json:"completed" db:"completed"`
	NextReview *time.Time `json:"next_review" db:"next_review"`
	ReviewedAt time.Time  `json:"reviewed_at" db:"reviewed_at"`
}
