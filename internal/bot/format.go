package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/studytrack/internal/excel"
	"github.com/example/studytrack/internal/progress"
	"github.com/example/studytrack/internal/spaced_repetition"
	"github.com/example/studytrack/internal/study"
	"github.com/example/studytrack/pkg/models"
)

const (
	callbackMainMenu   = "main_menu"
	callbackListTopics = "list_topics"
	callbackDueTopics  = "due_topics"
	callbackStats      = "stats"
	callbackHelp       = "help"
	callbackReview     = "review_"
)

const dateLayout = "Mon 02 Jan 15:04"

// maxStatsTopics limits the per-topic lines in /stats
const maxStatsTopics = 5

var (
	errUsageAdd       = errors.New("usage: /add <title> [| category] [| intervals]")
	errUsageTopicID   = errors.New("please give a topic id, e.g. /review 12")
	errUsageIntervals = errors.New("usage: /intervals <id> <days,comma,separated>")
	errUsageNotify    = errors.New("usage: /notify <hour 0-23> or /notify off")
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// MainMenuButtons returns the buttons for the main menu
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🔄 Due now", CallbackData: callbackDueTopics},
			{Text: "📋 My topics", CallbackData: callbackListTopics},
		},
		{
			{Text: "📊 Statistics", CallbackData: callbackStats},
			{Text: "❓ Help", CallbackData: callbackHelp},
		},
	}
}

// reviewButtons returns one "reviewed" button per active topic
func reviewButtons(topics []models.Topic) [][]MenuButton {
	var rows [][]MenuButton
	for _, t := range topics {
		if t.IsCompleted() {
			continue
		}
		rows = append(rows, []MenuButton{{
			Text:         fmt.Sprintf("✅ Reviewed \"%s\"", t.Title),
			CallbackData: fmt.Sprintf("%s%d", callbackReview, t.ID),
		}})
	}
	return rows
}

const helpText = "📖 How it works\n\n" +
	"Add a topic, review it when it is due and the next review moves further away: " +
	"0, 1, 3, 7, 14, 30 and then every 60 days.\n" +
	"A custom schedule ending in 0 finishes the topic after its last step.\n\n" +
	"📚 Topics:\n" +
	"/add <title> [| category] [| intervals] - add a topic\n" +
	"/list - all topics\n" +
	"/due - topics to review now\n" +
	"/review <id> - mark a topic as reviewed\n" +
	"/intervals <id> <days> - set a custom schedule, e.g. 1,3,7,0\n" +
	"/delete <id> - delete a topic\n" +
	"/reactivate <id> - restart a completed topic\n\n" +
	"⚙️ Settings:\n" +
	"/notify <hour> - daily reminder hour (0-23), /notify off to disable\n" +
	"/remind - send the reminder for due topics now\n" +
	"/stats - progress, streak and level"

func parseAddArgs(args string) (study.NewTopic, error) {
	parts := strings.SplitN(args, "|", 3)
	nt := study.NewTopic{Title: strings.TrimSpace(parts[0])}
	if nt.Title == "" {
		return nt, errUsageAdd
	}
	if len(parts) > 1 {
		nt.Category = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		nt.Intervals = strings.TrimSpace(parts[2])
	}
	return nt, nil
}

func parseTopicID(args string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(args), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errUsageTopicID
	}
	return id, nil
}

// parseIntervalsArgs splits "<id> <schedule>"; the schedule may contain spaces
func parseIntervalsArgs(args string) (int64, string, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return 0, "", errUsageIntervals
	}
	id, err := parseTopicID(fields[0])
	if err != nil {
		return 0, "", errUsageIntervals
	}
	return id, strings.Join(fields[1:], ""), nil
}

// parseNotifyArgs returns whether reminders are enabled and, if given, the hour (-1 otherwise)
func parseNotifyArgs(args string) (bool, int, error) {
	args = strings.ToLower(strings.TrimSpace(args))
	if args == "off" {
		return false, -1, nil
	}
	hour, err := strconv.Atoi(strings.TrimSuffix(args, ":00"))
	if err != nil || hour < 0 || hour > 23 {
		return false, 0, errUsageNotify
	}
	return true, hour, nil
}

func formatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func formatNextReview(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "never"
	}
	return t.In(loc).Format(dateLayout)
}

func formatTopic(t models.Topic, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", t.ID, t.Title)
	if t.Category != "" {
		fmt.Fprintf(&b, " [%s]", t.Category)
	}
	b.WriteString("\n")

	switch {
	case t.IsCompleted():
		b.WriteString("🏁 Completed")
	case t.NextReview != nil && !t.NextReview.After(now):
		b.WriteString("🔄 Due now")
	default:
		fmt.Fprintf(&b, "⏳ Next review: %s", formatNextReview(t.NextReview, now.Location()))
	}
	if t.CustomIntervals != nil {
		fmt.Fprintf(&b, " (schedule %s)", *t.CustomIntervals)
	}
	return b.String()
}

func formatTopicList(header string, topics []models.Topic, now time.Time) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for _, t := range topics {
		b.WriteString(formatTopic(t, now))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatReviewResult(t *models.Topic, res spaced_repetition.ReviewResult, loc *time.Location) string {
	if res.Completed {
		return fmt.Sprintf("🏁 \"%s\" completed. Well done!", t.Title)
	}
	if res.NextGap == 0 {
		return fmt.Sprintf("✅ \"%s\" reviewed. Review it again today.", t.Title)
	}
	return fmt.Sprintf("✅ \"%s\" reviewed. Next review in %s: %s",
		t.Title, formatDays(res.NextGap), formatNextReview(res.NextReview, loc))
}

func formatReminder(count int) string {
	if count == 1 {
		return "🔔 You have 1 topic to review today."
	}
	return fmt.Sprintf("🔔 You have %d topics to review today.", count)
}

func formatProgress(s progress.Summary) string {
	return "📊 Your progress\n\n" +
		fmt.Sprintf("Reviews: %d\n", s.Reviews) +
		fmt.Sprintf("Completed topics: %d\n", s.Completions) +
		fmt.Sprintf("Level %d (%d/%d XP)\n", s.Level, s.XP, s.NextLevelXP) +
		fmt.Sprintf("Streak: %s (longest %s)", formatDays(s.CurrentStreak), formatDays(s.LongestStreak))
}

// formatTopicStatistics lists the most reviewed topics; stats are expected most reviewed first
func formatTopicStatistics(stats []models.Statistics, limit int) string {
	if len(stats) == 0 {
		return ""
	}
	if len(stats) > limit {
		stats = stats[:limit]
	}
	var b strings.Builder
	b.WriteString("\n\n📚 Most reviewed:")
	for _, s := range stats {
		fmt.Fprintf(&b, "\n%s: %d reviews", s.TopicTitle, s.TotalReviews)
		if s.Completions > 0 {
			fmt.Fprintf(&b, ", completed %d×", s.Completions)
		}
	}
	return b.String()
}

func formatImportResult(r *excel.ImportResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Import finished\n- Processed: %d\n- Added: %d\n- Skipped: %d\n",
		r.TotalProcessed, r.Created, r.Skipped)
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "\n❌ Errors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			b.WriteString("- " + e + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
