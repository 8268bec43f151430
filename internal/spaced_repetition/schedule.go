package spaced_repetition

import (
	"strconv"
	"strings"
)

// Schedule is an ordered sequence of review gaps in days
type Schedule []int

// defaultSchedule is the progression used when a topic has no custom intervals
var defaultSchedule = [...]int{0, 1, 3, 7, 14, 30, 60}

// DefaultSchedule returns a copy of the default review progression
func DefaultSchedule() Schedule {
	s := make(Schedule, len(defaultSchedule))
	copy(s, defaultSchedule[:])
	return s
}

// ParseSchedule turns a comma-separated list of days into a schedule.
// Tokens that are not integers are dropped. When nothing usable remains
// the default schedule is returned and isCustom is false.
func ParseSchedule(raw string) (schedule Schedule, isCustom bool) {
	if strings.TrimSpace(raw) == "" {
		return DefaultSchedule(), false
	}

	for _, token := range strings.Split(raw, ",") {
		gap, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			continue
		}
		schedule = append(schedule, gap)
	}

	if len(schedule) == 0 {
		return DefaultSchedule(), false
	}
	return schedule, true
}

// String renders the schedule in the same comma-separated form ParseSchedule accepts
func (s Schedule) String() string {
	parts := make([]string, len(s))
	for i, gap := range s {
		parts[i] = strconv.Itoa(gap)
	}
	return strings.Join(parts, ",")
}

// NextGap returns the gap that follows currentGap in the schedule.
// complete is true only for a custom schedule ending in 0, once the
// review reaches that terminating step.
//
// A gap that is not part of the schedule (the schedule was edited mid-cycle)
// advances to the smallest larger entry, or to the last entry when none is larger.
func NextGap(currentGap int, schedule Schedule, isCustom bool) (gap int, complete bool) {
	if len(schedule) == 0 {
		return currentGap, false
	}

	idx := -1
	for i, g := range schedule {
		if g == currentGap {
			idx = i
			break
		}
	}

	last := schedule[len(schedule)-1]

	switch {
	case idx == -1:
		found := false
		for _, g := range schedule {
			if g > currentGap && (!found || g < gap) {
				gap = g
				found = true
			}
		}
		if !found {
			return last, false
		}
		return gap, false
	case idx == len(schedule)-1:
		if isCustom && last == 0 {
			return 0, true
		}
		// Maintenance mode: keep repeating the final interval
		return last, false
	default:
		if isCustom && idx+1 == len(schedule)-1 && last == 0 {
			return 0, true
		}
		return schedule[idx+1], false
	}
}
