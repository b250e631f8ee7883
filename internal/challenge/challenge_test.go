package challenge

import (
	"testing"

	"forknight/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		progress, total, want int
	}{
		{0, 100, 0},
		{50, 100, 50},
		{1, 3, 33},
		{2, 3, 67},
		{100, 100, 100},
		{120, 100, 100},
		{5, 0, 0},
		{-1, 10, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentage(tt.progress, tt.total), "%d/%d", tt.progress, tt.total)
	}
}

func TestEvaluate(t *testing.T) {
	defs := []Definition{
		{ID: "merge-master", Name: "Merge Master", Type: models.ChallengePR, Source: SourceLive,
			Metric: models.MetricMonthlyMergedPRs, Total: 10, XP: 200, Timeframe: "30 days"},
		{ID: "commit-marathon", Name: "Commit Marathon", Type: models.ChallengeWeekly, Source: SourceLive,
			Metric: models.MetricWeeklyCommits, Total: 100, XP: 300},
		{ID: "code-reviewer", Name: "Code Reviewer", Type: models.ChallengeReview, Source: SourceStatic,
			Placeholder: 3, Total: 5, XP: 150},
	}

	metrics := models.Metrics{
		models.MetricMonthlyMergedPRs: 4,
		models.MetricWeeklyCommits:    120,
	}

	challenges := Evaluate(defs, metrics)
	require.Len(t, challenges, 3)

	merge := challenges[0]
	assert.Equal(t, "merge-master", merge.ID)
	assert.Equal(t, 4, merge.Progress)
	assert.Equal(t, 40, merge.Percentage)
	assert.False(t, merge.Completed)
	assert.Nil(t, merge.ActualProgress)
	assert.Equal(t, "30 days", merge.Timeframe)
	assert.False(t, merge.Static)

	marathon := challenges[1]
	assert.Equal(t, 120, marathon.Progress, "progress is not clamped")
	require.NotNil(t, marathon.ActualProgress)
	assert.Equal(t, 120, *marathon.ActualProgress)
	assert.Equal(t, 100, marathon.Percentage)
	assert.True(t, marathon.Completed)

	review := challenges[2]
	assert.True(t, review.Static)
	assert.Equal(t, 3, review.Progress)
	assert.Equal(t, 60, review.Percentage)
	assert.False(t, review.Completed)
}

func TestEvaluateCompletesAtExactTotal(t *testing.T) {
	defs := []Definition{{ID: "streak", Source: SourceLive, Metric: models.MetricCurrentStreak, Total: 7}}

	c := Evaluate(defs, models.Metrics{models.MetricCurrentStreak: 7})[0]
	assert.True(t, c.Completed)
	assert.Nil(t, c.ActualProgress)
	assert.Equal(t, 100, c.Percentage)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr bool
	}{
		{"live", Definition{ID: "a", Source: SourceLive, Metric: models.MetricTotalPRs, Total: 1}, false},
		{"static", Definition{ID: "a", Source: SourceStatic, Placeholder: 2, Total: 5}, false},
		{"missing id", Definition{Source: SourceLive, Metric: models.MetricTotalPRs, Total: 1}, true},
		{"zero total", Definition{ID: "a", Source: SourceLive, Metric: models.MetricTotalPRs}, true},
		{"unknown metric", Definition{ID: "a", Source: SourceLive, Metric: "stars", Total: 1}, true},
		{"unknown source", Definition{ID: "a", Source: "remote", Total: 1}, true},
		{"negative xp", Definition{ID: "a", Source: SourceStatic, Total: 1, XP: -5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
