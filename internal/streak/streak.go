// Package streak computes consecutive-day commit runs from push events.
package streak

import (
	"sort"
	"time"

	"forknight/internal/models"
)

const day = 24 * time.Hour

// Days returns the distinct calendar days, in loc, on which at least one push
// event occurred, most recent first. Each day is returned as midnight UTC of
// the same civil date so that day arithmetic is free of DST shifts.
func Days(events []models.ActivityEvent, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}

	seen := make(map[time.Time]struct{})
	for _, e := range events {
		if e.Type != models.EventPush {
			continue
		}
		seen[civilDate(e.Timestamp, loc)] = struct{}{}
	}

	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

// Current returns the length of the unbroken run of push days ending at the
// most recent push day. The run is broken, and zero is returned, when the most
// recent push day is older than yesterday.
func Current(events []models.ActivityEvent, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}

	days := Days(events, loc)
	if len(days) == 0 {
		return 0
	}

	today := civilDate(now, loc)
	if daysBetween(today, days[0]) > 1 {
		return 0
	}

	count := 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) != 1 {
			break
		}
		count++
	}
	return count
}

// Longest returns the longest run of consecutive push days in events
func Longest(events []models.ActivityEvent, loc *time.Location) int {
	days := Days(events, loc)
	if len(days) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// State bundles the current and longest streak with the last push day
func State(events []models.ActivityEvent, now time.Time, loc *time.Location) models.StreakState {
	state := models.StreakState{
		CurrentStreak: Current(events, now, loc),
		LongestStreak: Longest(events, loc),
	}
	if days := Days(events, loc); len(days) > 0 {
		state.LastActiveDay = days[0]
	}
	return state
}

func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole days from b to a. Days in the future of a
// count as zero.
func daysBetween(a, b time.Time) int {
	diff := int(a.Sub(b) / day)
	if diff < 0 {
		return 0
	}
	return diff
}
