package collector

import (
	"context"
	"fmt"
	"time"

	"forknight/internal/models"
)

const contributionsQuery = `query($from: DateTime!, $to: DateTime!) {
  viewer {
    lifetime: contributionsCollection {
      contributionCalendar {
        totalContributions
      }
    }
    window: contributionsCollection(from: $from, to: $to) {
      totalCommitContributions
      totalPullRequestContributions
      totalPullRequestReviewContributions
      totalIssueContributions
    }
  }
}`

// Contributions is the GraphQL view of the viewer's activity
type Contributions struct {
	// CalendarTotal is the contribution calendar total of the last year
	CalendarTotal int
	Window        models.ContributionWindow
}

type contributionsResponse struct {
	Viewer struct {
		Lifetime struct {
			ContributionCalendar struct {
				TotalContributions int `json:"totalContributions"`
			} `json:"contributionCalendar"`
		} `json:"lifetime"`
		Window struct {
			TotalCommitContributions            int `json:"totalCommitContributions"`
			TotalPullRequestContributions       int `json:"totalPullRequestContributions"`
			TotalPullRequestReviewContributions int `json:"totalPullRequestReviewContributions"`
			TotalIssueContributions             int `json:"totalIssueContributions"`
		} `json:"window"`
	} `json:"viewer"`
}

// Contributions fetches the contribution calendar total together with the
// per-kind counts between from and to
func (c *Collector) Contributions(ctx context.Context, viewer models.Viewer, from, to time.Time) (*Contributions, error) {
	variables := map[string]any{
		"from": from.UTC().Format(time.RFC3339),
		"to":   to.UTC().Format(time.RFC3339),
	}

	var resp contributionsResponse
	if err := c.api.GraphQL(ctx, viewer.Token, contributionsQuery, variables, &resp); err != nil {
		return nil, fmt.Errorf("fetching contributions: %w", err)
	}

	w := resp.Viewer.Window
	return &Contributions{
		CalendarTotal: resp.Viewer.Lifetime.ContributionCalendar.TotalContributions,
		Window: models.ContributionWindow{
			From:         from,
			To:           to,
			Commits:      w.TotalCommitContributions,
			PullRequests: w.TotalPullRequestContributions,
			Reviews:      w.TotalPullRequestReviewContributions,
			Issues:       w.TotalIssueContributions,
		},
	}, nil
}

// Weekly returns the contribution counts of the weekly window ending now
func (c *Collector) Weekly(ctx context.Context, viewer models.Viewer) (models.ContributionWindow, error) {
	now := c.now()
	contributions, err := c.Contributions(ctx, viewer, c.windowStart(now, c.weeklyDays), now)
	if err != nil {
		return models.ContributionWindow{}, err
	}
	return contributions.Window, nil
}
