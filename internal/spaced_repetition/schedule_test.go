package spaced_repetition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       Schedule
		wantCustom bool
	}{
		{"empty", "", DefaultSchedule(), false},
		{"blank", "   ", DefaultSchedule(), false},
		{"all invalid", "abc,def", DefaultSchedule(), false},
		{"partial", "3,abc,7", Schedule{3, 7}, true},
		{"whitespace", " 1 , 2,  5 ", Schedule{1, 2, 5}, true},
		{"terminator", "7,0", Schedule{7, 0}, true},
		{"negatives and duplicates kept", "-1,3,3,2", Schedule{-1, 3, 3, 2}, true},
		{"empty tokens", ",,4,", Schedule{4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, custom := ParseSchedule(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCustom, custom)
		})
	}
}

func TestDefaultScheduleIsImmutable(t *testing.T) {
	s := DefaultSchedule()
	s[0] = 99

	assert.Equal(t, Schedule{0, 1, 3, 7, 14, 30, 60}, DefaultSchedule())
}

func TestNextGapDefaultProgression(t *testing.T) {
	steps := map[int]int{0: 1, 1: 3, 3: 7, 7: 14, 14: 30, 30: 60}
	for current, want := range steps {
		gap, complete := NextGap(current, DefaultSchedule(), false)
		assert.False(t, complete)
		assert.Equal(t, want, gap, "after %d", current)
	}
}

func TestNextGapMaintenance(t *testing.T) {
	gap, complete := NextGap(60, DefaultSchedule(), false)
	assert.False(t, complete)
	assert.Equal(t, 60, gap)
}

func TestNextGapCustomTerminator(t *testing.T) {
	s, custom := ParseSchedule("7,0")

	_, complete := NextGap(7, s, custom)
	assert.True(t, complete)

	_, complete = NextGap(0, s, custom)
	assert.True(t, complete)
}

func TestNextGapCustomTerminatorLaterStep(t *testing.T) {
	s, custom := ParseSchedule("1,3,0")

	gap, complete := NextGap(1, s, custom)
	assert.False(t, complete)
	assert.Equal(t, 3, gap)

	_, complete = NextGap(3, s, custom)
	assert.True(t, complete)
}

func TestNextGapInnerZeroDoesNotComplete(t *testing.T) {
	gap, complete := NextGap(2, Schedule{2, 0, 5}, true)
	assert.False(t, complete)
	assert.Equal(t, 0, gap)
}

func TestNextGapZeroTailNotCustom(t *testing.T) {
	gap, complete := NextGap(0, Schedule{3, 0}, false)
	assert.False(t, complete)
	assert.Equal(t, 0, gap)
}

func TestNextGapUnmatched(t *testing.T) {
	s := Schedule{1, 3, 7}

	gap, complete := NextGap(2, s, true)
	assert.False(t, complete)
	assert.Equal(t, 3, gap)

	gap, _ = NextGap(10, s, true)
	assert.Equal(t, 7, gap)
}

func TestNextGapUnmatchedPicksSmallestLarger(t *testing.T) {
	gap, _ := NextGap(2, Schedule{30, 5, 14}, true)
	assert.Equal(t, 5, gap)
}

func TestNextGapFirstOccurrence(t *testing.T) {
	gap, _ := NextGap(3, Schedule{1, 3, 5, 3, 9}, true)
	assert.Equal(t, 5, gap)
}

func TestNextGapEmptySchedule(t *testing.T) {
	gap, complete := NextGap(4, Schedule{}, true)
	assert.False(t, complete)
	assert.Equal(t, 4, gap)
}

func TestScheduleString(t *testing.T) {
	assert.Equal(t, "0,1,3,7,14,30,60", DefaultSchedule().String())
	assert.Equal(t, "", Schedule{}.String())
}

func TestNextGapAllNegativeSchedule(t *testing.T) {
	schedule, isCustom := ParseSchedule("-3,-1")
	require.True(t, isCustom)

	// No entry is larger than 0, so the last entry is used
	gap, complete := NextGap(0, schedule, isCustom)
	assert.Equal(t, -1, gap)
	assert.False(t, complete)

	gap, complete = NextGap(-1, schedule, isCustom)
	assert.Equal(t, -1, gap)
	assert.False(t, complete)

	gap, _ = NextGap(-3, schedule, isCustom)
	assert.Equal(t, -1, gap)
}
