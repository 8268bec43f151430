package spaced_repetition

import (
	"time"

	"github.com/example/studytrack/pkg/models"
)

// DefaultReviewHour is the local hour at which future reviews become due
const DefaultReviewHour = 6

// Reviewer applies review actions to topics
type Reviewer struct {
	// Hour of day (in the clock's location) used for future review dates
	ReviewHour int
}

// NewReviewer creates a reviewer with default settings
func NewReviewer() *Reviewer {
	return &Reviewer{ReviewHour: DefaultReviewHour}
}

// ReviewUpdate holds the topic fields a review changes
type ReviewUpdate struct {
	Status     models.TopicStatus
	LastGap    int
	NextReview *time.Time
}

// ReviewResult describes the outcome of a review for display
type ReviewResult struct {
	Completed  bool       `json:"completed"`
	NextGap    int        `json:"next_gap"`
	NextReview *time.Time `json:"next_review"`
}

// Apply computes the state transition for reviewing topic at now.
// It does not modify topic; the caller persists the returned update.
func (r *Reviewer) Apply(topic models.Topic, now time.Time) (ReviewUpdate, ReviewResult) {
	schedule, isCustom := ParseSchedule(topic.Intervals())
	gap, complete := NextGap(topic.LastGap, schedule, isCustom)

	if complete {
		return ReviewUpdate{
				Status:     models.TopicCompleted,
				LastGap:    topic.LastGap,
				NextReview: nil,
			}, ReviewResult{
				Completed: true,
			}
	}

	var next time.Time
	if gap == 0 {
		next = now
	} else {
		next = time.Date(now.Year(), now.Month(), now.Day()+gap, r.ReviewHour, 0, 0, 0, now.Location())
	}

	return ReviewUpdate{
			Status:     models.TopicActive,
			LastGap:    gap,
			NextReview: &next,
		}, ReviewResult{
			NextGap:    gap,
			NextReview: &next,
		}
}

// ApplyReview applies a review with the default reviewer
func ApplyReview(topic models.Topic, now time.Time) (ReviewUpdate, ReviewResult) {
	return NewReviewer().Apply(topic, now)
}

// Commit copies the update into topic.
func (u ReviewUpdate) Commit(topic *models.Topic) {
	topic.Status = u.Status
	topic.LastGap = u.LastGap
	topic.NextReview = u.NextReview
}
