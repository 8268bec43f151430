package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studytrack/pkg/models"
)

var now = time.Date(2025, 3, 10, 15, 42, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestApplyReviewFirstStep(t *testing.T) {
	topic := models.Topic{Status: models.TopicActive, LastGap: 0, NextReview: &now}

	update, result := ApplyReview(topic, now)

	require.NotNil(t, result.NextReview)
	assert.False(t, result.Completed)
	assert.Equal(t, 1, result.NextGap)
	assert.Equal(t, time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC), *result.NextReview)
	assert.Equal(t, models.TopicActive, update.Status)
	assert.Equal(t, 1, update.LastGap)
}

func TestApplyReviewZeroGapIsDueNow(t *testing.T) {
	topic := models.Topic{Status: models.TopicActive, LastGap: 7, CustomIntervals: strPtr("3,7,0,5")}

	update, result := ApplyReview(topic, now)

	require.NotNil(t, update.NextReview)
	assert.Equal(t, 0, result.NextGap)
	assert.Equal(t, now, *update.NextReview)
}

func TestApplyReviewCompletesCustomSchedule(t *testing.T) {
	topic := models.Topic{Status: models.TopicActive, LastGap: 14, CustomIntervals: strPtr("3,14,0")}

	update, result := ApplyReview(topic, now)

	assert.True(t, result.Completed)
	assert.Nil(t, result.NextReview)
	assert.Equal(t, 0, result.NextGap)
	assert.Equal(t, models.TopicCompleted, update.Status)
	assert.Nil(t, update.NextReview)
}

func TestApplyReviewKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	at := time.Date(2025, 1, 31, 23, 30, 0, 0, loc)
	topic := models.Topic{LastGap: 7}

	_, result := ApplyReview(topic, at)

	require.NotNil(t, result.NextReview)
	assert.Equal(t, time.Date(2025, 2, 14, 6, 0, 0, 0, loc), *result.NextReview)
}

func TestReviewerCustomHour(t *testing.T) {
	r := &Reviewer{ReviewHour: 9}
	_, result := r.Apply(models.Topic{LastGap: 1}, now)

	require.NotNil(t, result.NextReview)
	assert.Equal(t, time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC), *result.NextReview)
}

func TestApplyReviewProgression(t *testing.T) {
	topic := models.Topic{Status: models.TopicActive}
	clock := now
	wantGaps := []int{1, 3, 7, 14, 30, 60, 60, 60}

	for i, want := range wantGaps {
		update, result := ApplyReview(topic, clock)
		update.Commit(&topic)

		require.NotNil(t, topic.NextReview, "review %d", i)
		assert.Equal(t, want, topic.LastGap, "review %d", i)
		assert.Equal(t, models.TopicActive, topic.Status)
		y, m, d := clock.Date()
		assert.Equal(t, time.Date(y, m, d+want, 6, 0, 0, 0, time.UTC), *result.NextReview)

		clock = *topic.NextReview
	}
}

func TestApplyReviewCustomEndToEnd(t *testing.T) {
	topic := models.Topic{Status: models.TopicActive, LastGap: 7, CustomIntervals: strPtr("7,0")}

	update, result := ApplyReview(topic, now)
	update.Commit(&topic)

	assert.True(t, result.Completed)
	assert.Equal(t, models.TopicCompleted, topic.Status)
	assert.Nil(t, topic.NextReview)
	assert.Equal(t, 7, topic.LastGap)
}

func TestApplyReviewNotIdempotent(t *testing.T) {
	topic := models.Topic{Status: models.TopicActive, LastGap: 1}

	update, _ := ApplyReview(topic, now)
	update.Commit(&topic)
	update, _ = ApplyReview(topic, now)
	update.Commit(&topic)

	assert.Equal(t, 7, topic.LastGap)
}

func TestApplyReviewNegativeGapIsInThePast(t *testing.T) {
	topic := models.Topic{Status: models.TopicActive, CustomIntervals: strPtr("-3,-1")}

	update, result := ApplyReview(topic, now)
	update.Commit(&topic)

	assert.False(t, result.Completed)
	assert.Equal(t, -1, result.NextGap)
	require.NotNil(t, result.NextReview)
	assert.Equal(t, time.Date(2025, 3, 9, 6, 0, 0, 0, time.UTC), *result.NextReview)
	assert.True(t, result.NextReview.Before(now))
	assert.Equal(t, models.TopicActive, topic.Status)

	// Stays on the final entry
	_, result = ApplyReview(topic, now)
	assert.Equal(t, -1, result.NextGap)
}
