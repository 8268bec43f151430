// Package progress turns a user's review history into streaks, XP and levels.
package progress

import (
	"math"
	"sort"
	"time"
)

const (
	// XPPerReview is awarded for every review
	XPPerReview = 10
	// XPPerCompletion is awarded on top when a review completes a topic
	XPPerCompletion = 50
)

// Summary is a user's gamification snapshot
type Summary struct {
	Reviews       int `json:"reviews"`
	Completions   int `json:"completions"`
	XP            int `json:"xp"`
	Level         int `json:"level"`
	NextLevelXP   int `json:"next_level_xp"`
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}

// XP returns the experience earned for the given counts
func XP(reviews, completions int) int {
	return reviews*XPPerReview + completions*XPPerCompletion
}

// LevelThreshold returns the XP needed to reach level (1-based); level n needs 100*n*(n-1)/2
func LevelThreshold(level int) int {
	if level <= 1 {
		return 0
	}
	return 100 * level * (level - 1) / 2
}

// Level returns the level reached with xp
func Level(xp int) int {
	if xp <= 0 {
		return 1
	}
	// Solve 50*n*(n-1) <= xp for the largest n
	n := int((1 + math.Sqrt(1+float64(xp)/12.5)) / 2)
	for LevelThreshold(n+1) <= xp {
		n++
	}
	for n > 1 && LevelThreshold(n) > xp {
		n--
	}
	return n
}

// Streak counts consecutive calendar days with at least one review.
// Days are taken in today's location. current is zero unless the run
// ends today or yesterday.
func Streak(reviews []time.Time, today time.Time) (current, longest int) {
	if len(reviews) == 0 {
		return 0, 0
	}

	loc := today.Location()
	seen := make(map[time.Time]bool, len(reviews))
	days := make([]time.Time, 0, len(reviews))
	for _, r := range reviews {
		d := dayOf(r.In(loc))
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	last := days[len(days)-1]
	t := dayOf(today)
	if last.Equal(t) || last.AddDate(0, 0, 1).Equal(t) {
		current = run
	}
	return current, longest
}

// Summarize builds a Summary from review counts and timestamps
func Summarize(reviews, completions int, times []time.Time, today time.Time) Summary {
	xp := XP(reviews, completions)
	level := Level(xp)
	current, longest := Streak(times, today)
	return Summary{
		Reviews:       reviews,
		Completions:   completions,
		XP:            xp,
		Level:         level,
		NextLevelXP:   LevelThreshold(level + 1),
		CurrentStreak: current,
		LongestStreak: longest,
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
