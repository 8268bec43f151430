package bot

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/example/studytrack/internal/database"
	"github.com/example/studytrack/internal/excel"
	"github.com/example/studytrack/internal/study"
	"github.com/example/studytrack/pkg/models"
)

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return fmt.Errorf("invalid message: required fields are missing")
	}
	userID, chatID := message.From.ID, message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		return b.handleStart(ctx, message)
	case "help":
		return b.handleHelp(chatID)
	case "add":
		return b.handleAddTopic(ctx, userID, chatID, args)
	case "list":
		return b.handleListTopics(ctx, userID, chatID)
	case "due":
		return b.handleDueTopics(ctx, userID, chatID)
	case "review":
		return b.withTopicID(chatID, args, func(id int64) error {
			return b.handleReview(ctx, userID, chatID, id)
		})
	case "intervals":
		return b.handleIntervals(ctx, userID, chatID, args)
	case "delete":
		return b.withTopicID(chatID, args, func(id int64) error {
			return b.handleDelete(ctx, userID, chatID, id)
		})
	case "reactivate":
		return b.withTopicID(chatID, args, func(id int64) error {
			return b.handleReactivate(ctx, userID, chatID, id)
		})
	case "stats":
		return b.handleStats(ctx, userID, chatID)
	case "remind":
		return b.handleRemind(ctx, userID, chatID)
	case "notify":
		return b.handleNotify(ctx, userID, chatID, args)
	case "import":
		return b.handleImportCommand(userID, chatID)
	default:
		return b.reply(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	user := &models.User{
		ID:                  message.From.ID,
		Username:            message.From.UserName,
		FirstName:           message.From.FirstName,
		LastName:            message.From.LastName,
		IsAdmin:             b.isAdmin(message.From.ID),
		NotificationEnabled: true,
		NotificationHour:    database.DefaultNotificationHour,
	}
	if err := b.users.Upsert(ctx, user); err != nil {
		return err
	}

	text := "👋 Welcome to studytrack!\n\n" +
		"I remind you to review what you learn, with the gaps between reviews growing each time.\n\n" +
		"1. Add a topic with /add\n" +
		"2. Get a reminder when it is due\n" +
		"3. Mark it as reviewed\n" +
		"4. Watch your streak grow"

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, helpText)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "⬅️ Back to menu", CallbackData: callbackMainMenu}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleAddTopic(ctx context.Context, userID, chatID int64, args string) error {
	nt, err := parseAddArgs(args)
	if err != nil {
		return b.reply(chatID, err.Error())
	}
	topic, err := b.service.AddTopic(ctx, userID, nt)
	if err != nil {
		return b.replyError(chatID, err)
	}

	schedule := "default schedule"
	if topic.CustomIntervals != nil {
		schedule = "schedule " + *topic.CustomIntervals
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("📝 Added #%d \"%s\" (%s). It is due now.", topic.ID, topic.Title, schedule))
	msg.ReplyMarkup = createKeyboard(reviewButtons([]models.Topic{*topic}))
	return b.sendMessage(msg)
}

func (b *Bot) handleListTopics(ctx context.Context, userID, chatID int64) error {
	topics, err := b.service.ListTopics(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(topics) == 0 {
		msg := tgbotapi.NewMessage(chatID, "You have no topics yet. Add one with /add <title>.")
		msg.ReplyMarkup = createKeyboard(MainMenuButtons())
		return b.sendMessage(msg)
	}

	msg := tgbotapi.NewMessage(chatID, formatTopicList("📋 Your topics:", topics, b.now().In(b.loc)))
	msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleDueTopics(ctx context.Context, userID, chatID int64) error {
	topics, err := b.service.DueTopics(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(topics) == 0 {
		msg := tgbotapi.NewMessage(chatID, "🎉 Nothing to review right now.")
		msg.ReplyMarkup = createKeyboard(MainMenuButtons())
		return b.sendMessage(msg)
	}

	msg := tgbotapi.NewMessage(chatID, formatTopicList("🔄 Due for review:", topics, b.now().In(b.loc)))
	msg.ReplyMarkup = createKeyboard(reviewButtons(topics))
	return b.sendMessage(msg)
}

func (b *Bot) withTopicID(chatID int64, args string, fn func(id int64) error) error {
	id, err := parseTopicID(args)
	if err != nil {
		return b.reply(chatID, err.Error())
	}
	return fn(id)
}

func (b *Bot) handleReview(ctx context.Context, userID, chatID, topicID int64) error {
	topic, result, err := b.service.Review(ctx, userID, topicID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.reply(chatID, formatReviewResult(topic, result, b.loc))
}

func (b *Bot) handleIntervals(ctx context.Context, userID, chatID int64, args string) error {
	id, raw, err := parseIntervalsArgs(args)
	if err != nil {
		return b.reply(chatID, err.Error())
	}
	topic, err := b.service.SetIntervals(ctx, userID, id, raw)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.reply(chatID, fmt.Sprintf("✅ \"%s\" now follows the schedule %s", topic.Title, topic.Intervals()))
}

func (b *Bot) handleDelete(ctx context.Context, userID, chatID, topicID int64) error {
	if err := b.service.DeleteTopic(ctx, userID, topicID); err != nil {
		return b.replyError(chatID, err)
	}
	return b.reply(chatID, fmt.Sprintf("🗑 Topic #%d deleted", topicID))
}

func (b *Bot) handleReactivate(ctx context.Context, userID, chatID, topicID int64) error {
	topic, err := b.service.Reactivate(ctx, userID, topicID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.reply(chatID, fmt.Sprintf("🔁 \"%s\" is active again and due now", topic.Title))
}

func (b *Bot) handleStats(ctx context.Context, userID, chatID int64) error {
	summary, err := b.service.Progress(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	stats, err := b.service.Statistics(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	msg := tgbotapi.NewMessage(chatID, formatProgress(summary)+formatTopicStatistics(stats, maxStatsTopics))
	msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleRemind(ctx context.Context, userID, chatID int64) error {
	checker := b.reminderChecker()
	if checker == nil {
		return b.reply(chatID, "Reminders are disabled.")
	}
	due, err := checker.RunManualCheck(ctx, userID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if due == 0 {
		return b.reply(chatID, "🎉 Nothing to review right now.")
	}
	return nil
}

func (b *Bot) handleNotify(ctx context.Context, userID, chatID int64, args string) error {
	enabled, hour, err := parseNotifyArgs(args)
	if err != nil {
		return b.reply(chatID, err.Error())
	}
	if err := b.users.EnsureExists(ctx, userID); err != nil {
		return err
	}
	if !enabled {
		user, err := b.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		hour = user.NotificationHour
	}
	if err := b.users.UpdateNotificationSettings(ctx, userID, enabled, hour); err != nil {
		return err
	}

	if !enabled {
		return b.reply(chatID, "🔕 Reminders are off")
	}
	return b.reply(chatID, fmt.Sprintf("🔔 Reminders set for %d:00", hour))
}

func (b *Bot) handleImportCommand(userID, chatID int64) error {
	if !b.isAdmin(userID) {
		return b.reply(chatID, "This command is only available for administrators.")
	}
	b.setAwaitingUpload(userID, true)
	return b.reply(chatID, "Send an .xlsx or .csv file with columns: title, category, intervals. The first row is a header.")
}

func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return nil
	}
	if !b.isAwaitingUpload(message.From.ID) {
		return b.reply(message.Chat.ID, "I don't understand. Use /help to see what I can do.")
	}
	if message.Document == nil {
		return b.reply(message.Chat.ID, "Please send the topics as an .xlsx or .csv file.")
	}
	return b.handleImportDocument(ctx, message)
}

func (b *Bot) handleImportDocument(ctx context.Context, message *tgbotapi.Message) error {
	userID, chatID := message.From.ID, message.Chat.ID
	b.setAwaitingUpload(userID, false)

	url, err := b.api.GetFileDirectURL(message.Document.FileID)
	if err != nil {
		return fmt.Errorf("failed to get file URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	ext := filepath.Ext(message.Document.FileName)
	result, err := excel.ImportTopicsFrom(ctx, b.service, userID, resp.Body, ext, excel.DefaultImportConfig())
	if err != nil {
		b.log.Warn("import failed", "user_id", userID, "file", message.Document.FileName, "error", err)
		return b.reply(chatID, "❌ Could not read the file: "+err.Error())
	}

	b.log.Info("topics imported", "user_id", userID, "created", result.Created, "skipped", result.Skipped)
	b.notifyAdmins(ctx, userID, fmt.Sprintf("📥 User %d imported %s: %d added, %d skipped, %d errors",
		userID, message.Document.FileName, result.Created, result.Skipped, len(result.Errors)))

	msg := tgbotapi.NewMessage(chatID, formatImportResult(result))
	msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	return b.sendMessage(msg)
}

// notifyAdmins sends text to every registered admin except the one who triggered it
func (b *Bot) notifyAdmins(ctx context.Context, except int64, text string) {
	admins, err := b.users.GetAdminUsers(ctx)
	if err != nil {
		b.log.Warn("failed to load admins", "error", err)
		return
	}
	for _, admin := range admins {
		if admin.ID == except {
			continue
		}
		if err := b.reply(admin.ID, text); err != nil {
			b.log.Warn("failed to notify admin", "admin_id", admin.ID, "error", err)
		}
	}
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback.Message == nil || callback.From == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}

	userID, chatID := callback.From.ID, callback.Message.Chat.ID

	switch callback.Data {
	case callbackMainMenu:
		msg := tgbotapi.NewMessage(chatID, "🤖 Main menu")
		msg.ReplyMarkup = createKeyboard(MainMenuButtons())
		return b.sendMessage(msg)
	case callbackListTopics:
		return b.handleListTopics(ctx, userID, chatID)
	case callbackDueTopics:
		return b.handleDueTopics(ctx, userID, chatID)
	case callbackStats:
		return b.handleStats(ctx, userID, chatID)
	case callbackHelp:
		return b.handleHelp(chatID)
	}

	if strings.HasPrefix(callback.Data, callbackReview) {
		id, err := strconv.ParseInt(strings.TrimPrefix(callback.Data, callbackReview), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid topic ID in callback data: %w", err)
		}
		return b.handleReview(ctx, userID, chatID, id)
	}

	return b.reply(chatID, "⚠️ Unknown action")
}

// replyError tells the user about expected failures and returns the rest
func (b *Bot) replyError(chatID int64, err error) error {
	switch errors.Cause(err) {
	case study.ErrNotFound:
		return b.reply(chatID, "Topic not found. Use /list to see your topics.")
	case study.ErrTopicCompleted:
		return b.reply(chatID, "This topic is already completed. Use /reactivate <id> to start it over.")
	case study.ErrInvalidSchedule:
		return b.reply(chatID, "❌ "+study.ErrInvalidSchedule.Error()+", e.g. 1,3,7,0")
	case study.ErrEmptyTitle:
		return b.reply(chatID, errUsageAdd.Error())
	}
	if sendErr := b.reply(chatID, "❌ Something went wrong. Please try again later."); sendErr != nil {
		b.log.Warn("failed to report error", "error", sendErr)
	}
	return err
}
