package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studytrack/internal/database"
	"github.com/example/studytrack/internal/database/dbtest"
	"github.com/example/studytrack/internal/scheduler"
	"github.com/example/studytrack/internal/study"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	fileURL  string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(string) (string, error) {
	return f.fileURL, nil
}

func (f *fakeAPI) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok)
	return msg
}

const (
	admin       = int64(1)
	secondAdmin = int64(3)
)

var now = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Bot, *fakeAPI) {
	t.Helper()
	dbtest.Open(t)
	clock := func() time.Time { return now }
	svc := study.NewService(study.Options{Location: time.UTC, Now: clock})
	b := newBot(Options{
		Token:    "test",
		Service:  svc,
		IsAdmin:  func(id int64) bool { return id == admin || id == secondAdmin },
		Location: time.UTC,
		Now:      clock,
	})
	api := &fakeAPI{}
	b.api = api
	return b, api
}

func command(userID int64, text string) *tgbotapi.Message {
	name := strings.SplitN(text, " ", 2)[0]
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: userID},
		Chat:     &tgbotapi.Chat{ID: userID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func run(t *testing.T, b *Bot, api *fakeAPI, userID int64, text string) string {
	t.Helper()
	require.NoError(t, b.HandleCommand(context.Background(), command(userID, text)))
	return api.last(t).Text
}

func TestStartRegistersUser(t *testing.T) {
	b, api := setup(t)
	msg := command(admin, "/start")
	msg.From.UserName = "learner"
	require.NoError(t, b.HandleCommand(context.Background(), msg))
	assert.Contains(t, api.last(t).Text, "Welcome")

	user, err := database.NewUserRepository().GetByID(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, "learner", user.Username)
	assert.True(t, user.IsAdmin)
	assert.True(t, user.NotificationEnabled)
	assert.Equal(t, database.DefaultNotificationHour, user.NotificationHour)
}

func TestAddAndReviewWithDefaultSchedule(t *testing.T) {
	b, api := setup(t)

	assert.Equal(t, "📝 Added #1 \"Go basics\" (default schedule). It is due now.",
		run(t, b, api, 2, "/add Go basics | programming"))
	assert.Contains(t, run(t, b, api, 2, "/due"), "#1 Go basics [programming]")

	assert.Equal(t, "✅ \"Go basics\" reviewed. Next review in 1 day: Tue 11 Mar 06:00",
		run(t, b, api, 2, "/review 1"))
	assert.Equal(t, "✅ \"Go basics\" reviewed. Next review in 3 days: Thu 13 Mar 06:00",
		run(t, b, api, 2, "/review 1"))

	assert.Equal(t, "🎉 Nothing to review right now.", run(t, b, api, 2, "/due"))
	assert.Contains(t, run(t, b, api, 2, "/list"), "⏳ Next review: Thu 13 Mar 06:00")
	stats := run(t, b, api, 2, "/stats")
	assert.Contains(t, stats, "Reviews: 2")
	assert.Contains(t, stats, "📚 Most reviewed:\nGo basics: 2 reviews")
}

func TestCustomScheduleCompletes(t *testing.T) {
	b, api := setup(t)

	run(t, b, api, 2, "/add Essay | writing")
	assert.Contains(t, run(t, b, api, 2, "/review 1"), "Next review in 1 day")
	run(t, b, api, 2, "/intervals 1 1,0")
	assert.Equal(t, "🏁 \"Essay\" completed. Well done!", run(t, b, api, 2, "/review 1"))
	assert.Contains(t, run(t, b, api, 2, "/review 1"), "already completed")
	assert.Contains(t, run(t, b, api, 2, "/list"), "🏁 Completed")

	assert.Equal(t, "🔁 \"Essay\" is active again and due now", run(t, b, api, 2, "/reactivate 1"))
	assert.Contains(t, run(t, b, api, 2, "/due"), "Essay")
}

func TestNewTopicWithTerminatedScheduleCompletesOnFirstReview(t *testing.T) {
	b, api := setup(t)

	// A new topic starts at gap 0, which is already the final entry of "7,0"
	assert.Contains(t, run(t, b, api, 2, "/add Quiz | | 7, 0"), "schedule 7,0")
	assert.Equal(t, "🏁 \"Quiz\" completed. Well done!", run(t, b, api, 2, "/review 1"))
}

func TestIntervalsCommand(t *testing.T) {
	b, api := setup(t)
	run(t, b, api, 2, "/add Trees")

	assert.Equal(t, "✅ \"Trees\" now follows the schedule 2,5,0", run(t, b, api, 2, "/intervals 1 2, 5, 0"))
	assert.Contains(t, run(t, b, api, 2, "/intervals 1 soon"), "schedule must contain")
	assert.Equal(t, errUsageIntervals.Error(), run(t, b, api, 2, "/intervals 1"))
}

func TestForeignAndMissingTopics(t *testing.T) {
	b, api := setup(t)
	run(t, b, api, 2, "/add Private")

	assert.Contains(t, run(t, b, api, 3, "/review 1"), "Topic not found")
	assert.Contains(t, run(t, b, api, 3, "/delete 1"), "Topic not found")
	assert.Equal(t, errUsageTopicID.Error(), run(t, b, api, 2, "/review"))

	assert.Equal(t, "🗑 Topic #1 deleted", run(t, b, api, 2, "/delete 1"))
	assert.Contains(t, run(t, b, api, 2, "/list"), "no topics yet")
}

func TestNotifyCommand(t *testing.T) {
	b, api := setup(t)
	ctx := context.Background()
	users := database.NewUserRepository()

	assert.Equal(t, "🔔 Reminders set for 20:00", run(t, b, api, 2, "/notify 20"))
	user, err := users.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, user.NotificationEnabled)
	assert.Equal(t, 20, user.NotificationHour)

	assert.Equal(t, "🔕 Reminders are off", run(t, b, api, 2, "/notify off"))
	user, err = users.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.False(t, user.NotificationEnabled)
	assert.Equal(t, 20, user.NotificationHour)

	assert.Equal(t, errUsageNotify.Error(), run(t, b, api, 2, "/notify 25"))
}

func TestImportIsAdminOnly(t *testing.T) {
	b, api := setup(t)
	assert.Contains(t, run(t, b, api, 2, "/import"), "only available for administrators")
	assert.False(t, b.isAwaitingUpload(2))
}

func TestImportDocument(t *testing.T) {
	b, api := setup(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("title,category,intervals\nGraphs,math,\nTrees,math,\"1,3,0\"\n,,\nHeaps,cs,never\n"))
	}))
	defer srv.Close()
	api.fileURL = srv.URL

	run(t, b, api, secondAdmin, "/start")
	run(t, b, api, admin, "/import")
	require.True(t, b.isAwaitingUpload(admin))

	text := &tgbotapi.Message{From: &tgbotapi.User{ID: admin}, Chat: &tgbotapi.Chat{ID: admin}, Text: "here"}
	require.NoError(t, b.handleText(context.Background(), text))
	assert.Contains(t, api.last(t).Text, "as an .xlsx or .csv file")

	doc := &tgbotapi.Message{
		From:     &tgbotapi.User{ID: admin},
		Chat:     &tgbotapi.Chat{ID: admin},
		Document: &tgbotapi.Document{FileID: "f1", FileName: "topics.csv"},
	}
	require.NoError(t, b.handleText(context.Background(), doc))
	result := api.last(t).Text
	assert.Contains(t, result, "- Processed: 3")
	assert.Contains(t, result, "- Added: 2")
	assert.Contains(t, result, "Row 5: invalid intervals")
	assert.False(t, b.isAwaitingUpload(admin))

	notice := api.sent[len(api.sent)-2].(tgbotapi.MessageConfig)
	assert.Equal(t, secondAdmin, notice.ChatID)
	assert.Equal(t, "📥 User 1 imported topics.csv: 2 added, 0 skipped, 1 errors", notice.Text)

	assert.Contains(t, run(t, b, api, admin, "/list"), "schedule 1,3,0")
}

func TestReviewCallback(t *testing.T) {
	b, api := setup(t)
	run(t, b, api, 2, "/add Sorting")

	callback := &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 2},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 2}},
		Data:    "review_1",
	}
	require.NoError(t, b.HandleCallback(context.Background(), callback))
	assert.Contains(t, api.last(t).Text, "\"Sorting\" reviewed")
	assert.Len(t, api.requests, 1)

	callback.Data = "review_x"
	assert.Error(t, b.HandleCallback(context.Background(), callback))
}

func TestSendReminders(t *testing.T) {
	b, api := setup(t)
	run(t, b, api, 2, "/add Sorting")
	run(t, b, api, 2, "/add Graphs")

	require.NoError(t, b.SendReminders(context.Background(), 2, 2))
	msg := api.last(t)
	assert.Equal(t, int64(2), msg.ChatID)
	assert.Equal(t, "🔔 You have 2 topics to review today.", msg.Text)
	keyboard, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Len(t, keyboard.InlineKeyboard, 2)
}

func TestRemindCommand(t *testing.T) {
	b, api := setup(t)
	assert.Equal(t, "Reminders are disabled.", run(t, b, api, 2, "/remind"))

	b.SetReminders(scheduler.New(b, scheduler.Options{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	}))
	assert.Equal(t, "🎉 Nothing to review right now.", run(t, b, api, 2, "/remind"))

	run(t, b, api, 2, "/add Sorting")
	require.NoError(t, b.HandleCommand(context.Background(), command(2, "/remind")))
	msg := api.last(t)
	assert.Equal(t, int64(2), msg.ChatID)
	assert.Equal(t, "🔔 You have 1 topic to review today.", msg.Text)
}
