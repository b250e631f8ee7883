package streak

import (
	"testing"
	"time"

	"forknight/internal/models"

	"github.com/stretchr/testify/assert"
)

func push(ts time.Time) models.ActivityEvent {
	return models.ActivityEvent{Type: models.EventPush, Timestamp: ts, Commits: 1}
}

func TestCurrent(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	daysAgo := func(n int) time.Time { return now.AddDate(0, 0, -n) }

	tests := []struct {
		name   string
		events []models.ActivityEvent
		want   int
	}{
		{
			name: "no events",
			want: 0,
		},
		{
			name:   "pushed today only",
			events: []models.ActivityEvent{push(daysAgo(0))},
			want:   1,
		},
		{
			name:   "yesterday still counts",
			events: []models.ActivityEvent{push(daysAgo(1)), push(daysAgo(2))},
			want:   2,
		},
		{
			name:   "two days ago breaks the streak",
			events: []models.ActivityEvent{push(daysAgo(2)), push(daysAgo(3)), push(daysAgo(4))},
			want:   0,
		},
		{
			name: "gap stops the run",
			events: []models.ActivityEvent{
				push(daysAgo(0)), push(daysAgo(1)), push(daysAgo(3)), push(daysAgo(4)), push(daysAgo(5)),
			},
			want: 2,
		},
		{
			name: "multiple pushes on one day count once",
			events: []models.ActivityEvent{
				push(now.Add(-time.Hour)), push(now.Add(-2 * time.Hour)), push(daysAgo(1)),
			},
			want: 2,
		},
		{
			name: "non push events are ignored",
			events: []models.ActivityEvent{
				{Type: models.EventPullRequest, Timestamp: daysAgo(0), Opened: true},
				push(daysAgo(1)),
				{Type: models.EventIssue, Timestamp: daysAgo(2), Opened: true},
				push(daysAgo(3)),
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Current(tt.events, now, time.UTC))
		})
	}
}

func TestCurrentIsOrderIndependent(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	ordered := []models.ActivityEvent{
		push(now), push(now.AddDate(0, 0, -1)), push(now.AddDate(0, 0, -2)),
	}
	shuffled := []models.ActivityEvent{ordered[2], ordered[0], ordered[1]}

	assert.Equal(t, 3, Current(ordered, now, time.UTC))
	assert.Equal(t, Current(ordered, now, time.UTC), Current(shuffled, now, time.UTC))
}

func TestCurrentUsesConfiguredTimezone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("timezone database not available")
	}

	// 2024-03-09 23:30 UTC is already 2024-03-10 in Tokyo, leaving a gap
	// after 2024-03-08
	now := time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC)
	events := []models.ActivityEvent{
		push(time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)),
		push(time.Date(2024, 3, 8, 1, 0, 0, 0, time.UTC)),
	}

	assert.Equal(t, 2, Current(events, now, time.UTC))
	assert.Equal(t, 1, Current(events, now, tokyo))

	// one UTC day spans two Tokyo days
	sameDay := []models.ActivityEvent{
		push(time.Date(2024, 3, 9, 16, 0, 0, 0, time.UTC)),
		push(time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC)),
	}
	assert.Len(t, Days(sameDay, time.UTC), 1)
	assert.Len(t, Days(sameDay, tokyo), 2)
}

func TestLongest(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	at := func(n int) models.ActivityEvent { return push(base.AddDate(0, 0, n)) }

	events := []models.ActivityEvent{at(0), at(1), at(2), at(3), at(5), at(6), at(9)}
	assert.Equal(t, 4, Longest(events, time.UTC))
	assert.Equal(t, 0, Longest(nil, time.UTC))
	assert.Equal(t, 1, Longest([]models.ActivityEvent{at(0)}, time.UTC))
}

func TestState(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	events := []models.ActivityEvent{
		push(now), push(now.AddDate(0, 0, -1)),
		push(now.AddDate(0, 0, -5)), push(now.AddDate(0, 0, -6)), push(now.AddDate(0, 0, -7)),
	}

	state := State(events, now, time.UTC)
	assert.Equal(t, 2, state.CurrentStreak)
	assert.Equal(t, 3, state.LongestStreak)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), state.LastActiveDay)
}
