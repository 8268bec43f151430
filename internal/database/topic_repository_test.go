package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studytrack/internal/database"
	"github.com/example/studytrack/internal/database/dbtest"
	"github.com/example/studytrack/pkg/models"
)

var ctx = context.Background()

func newTopic(t *testing.T, userID int64, title string, next *time.Time) *models.Topic {
	t.Helper()
	topic := &models.Topic{UserID: userID, Title: title, Category: "math", NextReview: next}
	require.NoError(t, database.NewTopicRepository().Create(ctx, topic))
	return topic
}

func at(t time.Time) *time.Time { return &t }

func TestTopicCreateAndGet(t *testing.T) {
	dbtest.Open(t)
	dbtest.CreateUser(t, 1, 9)
	repo := database.NewTopicRepository()

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	topic := newTopic(t, 1, "Integrals", at(now))
	assert.NotZero(t, topic.ID)

	got, err := repo.GetByID(ctx, 1, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, "Integrals", got.Title)
	assert.Equal(t, "math", got.Category)
	assert.Equal(t, models.TopicActive, got.Status)
	assert.Equal(t, 0, got.LastGap)
	assert.Nil(t, got.CustomIntervals)
	require.NotNil(t, got.NextReview)
	assert.True(t, now.Equal(*got.NextReview))
}

func TestTopicGetByIDChecksOwner(t *testing.T) {
	dbtest.Open(t)
	dbtest.CreateUser(t, 1, 9)
	dbtest.CreateUser(t, 2, 9)

	topic := newTopic(t, 1, "Vectors", at(time.Now()))

	_, err := database.NewTopicRepository().GetByID(ctx, 2, topic.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestTopicGetDue(t *testing.T) {
	dbtest.Open(t)
	dbtest.CreateUser(t, 1, 9)
	repo := database.NewTopicRepository()

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	overdue := newTopic(t, 1, "overdue", at(now.Add(-48*time.Hour)))
	dueNow := newTopic(t, 1, "due now", at(now))
	newTopic(t, 1, "tomorrow", at(now.Add(24*time.Hour)))
	done := newTopic(t, 1, "done", at(now.Add(-time.Hour)))
	done.Status = models.TopicCompleted
	done.NextReview = nil
	require.NoError(t, repo.UpdateReviewState(ctx, done))

	due, err := repo.GetDue(ctx, 1, now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, overdue.ID, due[0].ID)
	assert.Equal(t, dueNow.ID, due[1].ID)

	counts, err := repo.CountDueByUser(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 2}, counts)
}

func TestTopicUpdateReviewState(t *testing.T) {
	dbtest.Open(t)
	dbtest.CreateUser(t, 1, 9)
	repo := database.NewTopicRepository()

	topic := newTopic(t, 1, "Limits", at(time.Now()))
	next := time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC)
	topic.LastGap = 1
	topic.NextReview = &next
	require.NoError(t, repo.UpdateReviewState(ctx, topic))

	got, err := repo.GetByID(ctx, 1, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LastGap)
	assert.True(t, next.Equal(*got.NextReview))

	topic.UserID = 2
	assert.ErrorIs(t, repo.UpdateReviewState(ctx, topic), database.ErrNotFound)
}

func TestTopicIntervalsAndReactivate(t *testing.T) {
	dbtest.Open(t)
	dbtest.CreateUser(t, 1, 9)
	repo := database.NewTopicRepository()
	topic := newTopic(t, 1, "Series", at(time.Now()))

	raw := "7,0"
	require.NoError(t, repo.UpdateIntervals(ctx, 1, topic.ID, &raw))
	got, err := repo.GetByID(ctx, 1, topic.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CustomIntervals)
	assert.Equal(t, "7,0", *got.CustomIntervals)

	got.Status = models.TopicCompleted
	got.LastGap = 7
	got.NextReview = nil
	require.NoError(t, repo.UpdateReviewState(ctx, got))

	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Reactivate(ctx, 1, topic.ID, now))
	got, err = repo.GetByID(ctx, 1, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TopicActive, got.Status)
	assert.Equal(t, 0, got.LastGap)
	assert.True(t, now.Equal(*got.NextReview))

	require.NoError(t, repo.UpdateIntervals(ctx, 1, topic.ID, nil))
	got, err = repo.GetByID(ctx, 1, topic.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CustomIntervals)
}

func TestTopicDelete(t *testing.T) {
	dbtest.Open(t)
	dbtest.CreateUser(t, 1, 9)
	repo := database.NewTopicRepository()
	topic := newTopic(t, 1, "Matrices", at(time.Now()))

	require.NoError(t, database.NewReviewLogRepository().Create(ctx, &models.ReviewLog{
		UserID: 1, TopicID: topic.ID, Gap: 1, ReviewedAt: time.Now(),
	}))
	require.NoError(t, database.NewStatisticsRepository().IncrementReviews(ctx, 1, topic.ID, false))

	assert.ErrorIs(t, repo.Delete(ctx, 2, topic.ID), database.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, 1, topic.ID))

	_, err := repo.GetByID(ctx, 1, topic.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	logs, err := database.NewReviewLogRepository().GetByTopicID(ctx, 1, topic.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
