// Package study holds the topic workflows shared by the HTTP API and the chat bot.
package study

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/example/studytrack/internal/database"
	"github.com/example/studytrack/internal/logger"
	"github.com/example/studytrack/internal/progress"
	"github.com/example/studytrack/internal/spaced_repetition"
	"github.com/example/studytrack/pkg/models"
)

var (
	// ErrNotFound is returned for topics that do not exist or belong to someone else
	ErrNotFound = database.ErrNotFound
	// ErrTopicCompleted is returned when reviewing a topic that already finished its schedule
	ErrTopicCompleted = errors.New("topic already completed")
	// ErrInvalidSchedule is returned for a custom schedule without a single usable number
	ErrInvalidSchedule = errors.New("schedule must contain at least one whole number of days")
	// ErrEmptyTitle is returned when a topic has no title
	ErrEmptyTitle = errors.New("topic title is required")
)

// Options configures a Service
type Options struct {
	Location   *time.Location
	ReviewHour *int // nil means spaced_repetition.DefaultReviewHour
	Now        func() time.Time
	Logger     *logger.Logger
}

// Service implements topic management and the review workflow
type Service struct {
	topics   *database.TopicRepository
	logs     *database.ReviewLogRepository
	stats    *database.StatisticsRepository
	users    *database.UserRepository
	reviewer *spaced_repetition.Reviewer
	location *time.Location
	clock    func() time.Time
	log      *logger.Logger
}

// NewService creates a service backed by the global database connection
func NewService(opts Options) *Service {
	s := &Service{
		topics:   database.NewTopicRepository(),
		logs:     database.NewReviewLogRepository(),
		stats:    database.NewStatisticsRepository(),
		users:    database.NewUserRepository(),
		reviewer: spaced_repetition.NewReviewer(),
		location: opts.Location,
		clock:    opts.Now,
		log:      opts.Logger,
	}
	if opts.ReviewHour != nil {
		s.reviewer.ReviewHour = *opts.ReviewHour
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().In(s.location)
}

// NewTopic describes a topic to create
type NewTopic struct {
	Title     string
	Category  string
	Intervals string
}

// normalizeIntervals validates a user supplied schedule. An empty string means the default schedule.
func normalizeIntervals(raw string) (*string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	schedule, isCustom := spaced_repetition.ParseSchedule(raw)
	if !isCustom {
		return nil, ErrInvalidSchedule
	}
	normalized := schedule.String()
	return &normalized, nil
}

// AddTopic creates an active topic that is due immediately
func (s *Service) AddTopic(ctx context.Context, userID int64, nt NewTopic) (*models.Topic, error) {
	title := strings.TrimSpace(nt.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	intervals, err := normalizeIntervals(nt.Intervals)
	if err != nil {
		return nil, err
	}

	if err := s.users.EnsureExists(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "add topic")
	}

	now := s.now()
	topic := &models.Topic{
		UserID:          userID,
		Title:           title,
		Category:        strings.TrimSpace(nt.Category),
		Status:          models.TopicActive,
		LastGap:         0,
		NextReview:      &now,
		CustomIntervals: intervals,
		CreatedAt:       now,
	}
	if err := s.topics.Create(ctx, topic); err != nil {
		return nil, errors.Wrap(err, "add topic")
	}

	s.log.Info("topic created", "user_id", userID, "topic_id", topic.ID)
	return topic, nil
}

// GetTopic returns one of the user's topics
func (s *Service) GetTopic(ctx context.Context, userID, topicID int64) (*models.Topic, error) {
	topic, err := s.topics.GetByID(ctx, userID, topicID)
	if err != nil {
		return nil, errors.Wrapf(err, "get topic %d", topicID)
	}
	return topic, nil
}

// ListTopics returns all topics of a user
func (s *Service) ListTopics(ctx context.Context, userID int64) ([]models.Topic, error) {
	topics, err := s.topics.GetAllByUserID(ctx, userID)
	return topics, errors.Wrap(err, "list topics")
}

// DueTopics returns the active topics whose review time has come
func (s *Service) DueTopics(ctx context.Context, userID int64) ([]models.Topic, error) {
	topics, err := s.topics.GetDue(ctx, userID, s.now())
	return topics, errors.Wrap(err, "due topics")
}

// Review records that the user reviewed a topic and schedules the next review.
// Nothing is returned when the row write fails; the computed schedule is discarded.
func (s *Service) Review(ctx context.Context, userID, topicID int64) (*models.Topic, spaced_repetition.ReviewResult, error) {
	var none spaced_repetition.ReviewResult

	topic, err := s.topics.GetByID(ctx, userID, topicID)
	if err != nil {
		return nil, none, errors.Wrapf(err, "review topic %d", topicID)
	}
	if topic.IsCompleted() {
		return nil, none, ErrTopicCompleted
	}

	now := s.now()
	update, result := s.reviewer.Apply(*topic, now)
	update.Commit(topic)

	if err := s.topics.UpdateReviewState(ctx, topic); err != nil {
		return nil, none, errors.Wrapf(err, "review topic %d", topicID)
	}

	// History and counters are secondary to the topic row
	entry := &models.ReviewLog{
		UserID:     userID,
		TopicID:    topicID,
		Gap:        result.NextGap,
		Completed:  result.Completed,
		NextReview: result.NextReview,
		ReviewedAt: now,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.log.Warn("failed to record review", "user_id", userID, "topic_id", topicID, "error", err)
	}
	if err := s.stats.IncrementReviews(ctx, userID, topicID, result.Completed); err != nil {
		s.log.Warn("failed to update statistics", "user_id", userID, "topic_id", topicID, "error", err)
	}

	s.log.Info("topic reviewed",
		"user_id", userID,
		"topic_id", topicID,
		"next_gap", result.NextGap,
		"completed", result.Completed,
	)
	return topic, result, nil
}

// SetIntervals replaces the custom schedule of a topic; an empty string restores the default
func (s *Service) SetIntervals(ctx context.Context, userID, topicID int64, raw string) (*models.Topic, error) {
	intervals, err := normalizeIntervals(raw)
	if err != nil {
		return nil, err
	}
	if err := s.topics.UpdateIntervals(ctx, userID, topicID, intervals); err != nil {
		return nil, errors.Wrapf(err, "set intervals of topic %d", topicID)
	}
	return s.GetTopic(ctx, userID, topicID)
}

// Reactivate restarts a topic from the beginning of its schedule
func (s *Service) Reactivate(ctx context.Context, userID, topicID int64) (*models.Topic, error) {
	if err := s.topics.Reactivate(ctx, userID, topicID, s.now()); err != nil {
		return nil, errors.Wrapf(err, "reactivate topic %d", topicID)
	}
	return s.GetTopic(ctx, userID, topicID)
}

// DeleteTopic removes a topic and its history
func (s *Service) DeleteTopic(ctx context.Context, userID, topicID int64) error {
	if err := s.topics.Delete(ctx, userID, topicID); err != nil {
		return errors.Wrapf(err, "delete topic %d", topicID)
	}
	s.log.Info("topic deleted", "user_id", userID, "topic_id", topicID)
	return nil
}

// History returns the reviews of a topic, newest first
func (s *Service) History(ctx context.Context, userID, topicID int64) ([]models.ReviewLog, error) {
	if _, err := s.GetTopic(ctx, userID, topicID); err != nil {
		return nil, err
	}
	logs, err := s.logs.GetByTopicID(ctx, userID, topicID)
	return logs, errors.Wrap(err, "history")
}

// Statistics returns per-topic review counters
func (s *Service) Statistics(ctx context.Context, userID int64) ([]models.Statistics, error) {
	stats, err := s.stats.GetUserStatistics(ctx, userID)
	return stats, errors.Wrap(err, "statistics")
}

// TopicStatistics returns the review counters of one topic
func (s *Service) TopicStatistics(ctx context.Context, userID, topicID int64) (*models.Statistics, error) {
	topic, err := s.GetTopic(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats.GetByUserAndTopic(ctx, userID, topicID)
	if err != nil {
		return nil, errors.Wrapf(err, "statistics of topic %d", topicID)
	}
	stats.TopicTitle = topic.Title
	return stats, nil
}

// Progress returns the user's XP, level and streaks
func (s *Service) Progress(ctx context.Context, userID int64) (progress.Summary, error) {
	reviews, completions, err := s.logs.CountByUser(ctx, userID)
	if err != nil {
		return progress.Summary{}, errors.Wrap(err, "progress")
	}
	times, err := s.logs.GetReviewTimes(ctx, userID)
	if err != nil {
		return progress.Summary{}, errors.Wrap(err, "progress")
	}
	return progress.Summarize(reviews, completions, times, s.now()), nil
}

// IsNotFound reports whether err means the topic is missing
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}
