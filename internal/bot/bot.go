package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studytrack/internal/database"
	"github.com/example/studytrack/internal/logger"
	"github.com/example/studytrack/internal/progress"
	"github.com/example/studytrack/internal/spaced_repetition"
	"github.com/example/studytrack/internal/study"
	"github.com/example/studytrack/pkg/models"
)

// Service is the study workflow the bot drives
type Service interface {
	AddTopic(ctx context.Context, userID int64, nt study.NewTopic) (*models.Topic, error)
	ListTopics(ctx context.Context, userID int64) ([]models.Topic, error)
	DueTopics(ctx context.Context, userID int64) ([]models.Topic, error)
	Review(ctx context.Context, userID, topicID int64) (*models.Topic, spaced_repetition.ReviewResult, error)
	SetIntervals(ctx context.Context, userID, topicID int64, raw string) (*models.Topic, error)
	Reactivate(ctx context.Context, userID, topicID int64) (*models.Topic, error)
	DeleteTopic(ctx context.Context, userID, topicID int64) error
	Statistics(ctx context.Context, userID int64) ([]models.Statistics, error)
	Progress(ctx context.Context, userID int64) (progress.Summary, error)
}

// ReminderChecker sends a user their due-topic reminder on demand
type ReminderChecker interface {
	RunManualCheck(ctx context.Context, userID int64) (int, error)
}

// botAPI is the part of tgbotapi.BotAPI used by the handlers
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Options configures a Bot
type Options struct {
	Token    string
	Service  Service
	IsAdmin  func(userID int64) bool
	Location *time.Location
	Now      func() time.Time
	Logger   *logger.Logger
}

// Bot represents the Telegram bot application
type Bot struct {
	api     botAPI
	client  *tgbotapi.BotAPI
	service Service
	users   *database.UserRepository
	isAdmin func(int64) bool
	loc     *time.Location
	now     func() time.Time
	http    *http.Client
	log     *logger.Logger

	mu                 sync.Mutex
	awaitingFileUpload map[int64]bool
	reminders          ReminderChecker
}

// New connects to Telegram and creates a bot instance
func New(opts Options) (*Bot, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}
	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}
	if opts.Service == nil {
		return nil, fmt.Errorf("study service is required")
	}

	client, err := tgbotapi.NewBotAPI(opts.Token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}

	b := newBot(opts)
	b.client = client
	b.api = client
	b.log.Info("authorized on account", "username", client.Self.UserName)
	return b, nil
}

func newBot(opts Options) *Bot {
	if opts.IsAdmin == nil {
		opts.IsAdmin = func(int64) bool { return false }
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Bot{
		service:            opts.Service,
		users:              database.NewUserRepository(),
		isAdmin:            opts.IsAdmin,
		loc:                opts.Location,
		now:                opts.Now,
		http:               &http.Client{Timeout: 30 * time.Second},
		log:                opts.Logger.With("component", "bot"),
		awaitingFileUpload: make(map[int64]bool),
	}
}

// SetReminders enables the /remind command
func (b *Bot) SetReminders(r ReminderChecker) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reminders = r
}

func (b *Bot) reminderChecker() ReminderChecker {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reminders
}

// Start handles updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// SendReminders implements scheduler.Notifier
func (b *Bot) SendReminders(ctx context.Context, userID int64, count int) error {
	// Private chats share the user's ID
	msg := tgbotapi.NewMessage(userID, formatReminder(count))
	due, err := b.service.DueTopics(ctx, userID)
	if err != nil {
		b.log.Warn("failed to load due topics for reminder", "user_id", userID, "error", err)
	}
	if buttons := reviewButtons(due); len(buttons) > 0 {
		msg.ReplyMarkup = createKeyboard(buttons)
	} else {
		msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	}

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	b.log.Info("reminder sent", "user_id", userID, "count", count)
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil:
		err = b.handleText(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.log.Error("failed to handle update", "update_id", update.UpdateID, "error", err)
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) setAwaitingUpload(userID int64, v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v {
		b.awaitingFileUpload[userID] = true
	} else {
		delete(b.awaitingFileUpload, userID)
	}
}

func (b *Bot) isAwaitingUpload(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaitingFileUpload[userID]
}
