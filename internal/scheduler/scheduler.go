package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/studytrack/internal/database"
	"github.com/example/studytrack/internal/logger"
)

// Default notification window
const (
	DefaultNotificationStartHour = 4
	DefaultNotificationEndHour   = 18
)

// Notifier sends due-review reminders to a user
type Notifier interface {
	SendReminders(ctx context.Context, userID int64, count int) error
}

// Options configures a Scheduler
type Options struct {
	StartHour int
	EndHour   int
	Location  *time.Location
	Now       func() time.Time
	Logger    *logger.Logger
}

// Scheduler runs the periodic reminder job
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     *database.UserRepository
	topics    *database.TopicRepository
	opts      Options
	log       *logger.Logger
}

// New creates a new scheduler instance
func New(notifier Notifier, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(opts.Location),
		notifier:  notifier,
		users:     database.NewUserRepository(),
		topics:    database.NewTopicRepository(),
		opts:      opts,
		log:       opts.Logger.With("component", "scheduler"),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start(ctx context.Context) error {
	// Top of every hour, matching the users' notification_hour
	_, err := s.scheduler.Cron("0 * * * *").Do(func() {
		if _, err := s.CheckAndSendReminders(ctx); err != nil {
			s.log.Error("reminder check failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// CheckAndSendReminders notifies users whose reminder hour is now and who have due topics.
// It returns the number of users notified.
func (s *Scheduler) CheckAndSendReminders(ctx context.Context) (int, error) {
	now := s.opts.Now().In(s.opts.Location)
	currentHour := now.Hour()

	if currentHour < s.opts.StartHour || currentHour > s.opts.EndHour {
		s.log.Debug("outside notification hours, skipping reminders",
			"hour", currentHour, "start", s.opts.StartHour, "end", s.opts.EndHour)
		return 0, nil
	}

	users, err := s.users.GetUsersForNotification(ctx, currentHour)
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, nil
	}

	due, err := s.topics.CountDueByUser(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range users {
		count := due[user.ID]
		if count == 0 {
			continue
		}
		if err := s.notifier.SendReminders(ctx, user.ID, count); err != nil {
			s.log.Warn("failed to send reminder", "user_id", user.ID, "error", err)
			continue
		}
		sent++
	}

	s.log.Info("reminders sent", "hour", currentHour, "users", sent)
	return sent, nil
}

// RunManualCheck sends a reminder to one user regardless of the hour.
// It returns the number of due topics; nothing is sent when there are none.
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) (int, error) {
	due, err := s.topics.GetDue(ctx, userID, s.opts.Now())
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}
	return len(due), s.notifier.SendReminders(ctx, userID, len(due))
}
