package collector

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"forknight/internal/models"

	gogithub "github.com/google/go-github/v57/github"
)

// SearchResult is the outcome of one search-count query. A non-nil Err means
// the count is unavailable and Count must not be trusted.
type SearchResult struct {
	Count int
	Err   error
}

// searchQuery is a search-derived estimate for one metric
type searchQuery struct {
	metric  models.Metric
	commits bool
	q       string
}

const searchDateLayout = "2006-01-02"

func searchQueries(login string, monthStart time.Time) []searchQuery {
	since := monthStart.Format(searchDateLayout)
	return []searchQuery{
		{metric: models.MetricTotalPRs, q: fmt.Sprintf("type:pr author:%s", login)},
		{metric: models.MetricTotalIssues, q: fmt.Sprintf("type:issue author:%s", login)},
		{metric: models.MetricMonthlyPRs, q: fmt.Sprintf("type:pr author:%s created:>=%s", login, since)},
		{metric: models.MetricMonthlyMergedPRs, q: fmt.Sprintf("type:pr author:%s is:merged merged:>=%s", login, since)},
		{metric: models.MetricMonthlyIssues, q: fmt.Sprintf("type:issue author:%s created:>=%s", login, since)},
		{metric: models.MetricMonthlyCommits, commits: true, q: fmt.Sprintf("author:%s author-date:>=%s", login, since)},
	}
}

// SearchIssues returns the total count of issues and pull requests matching q
func (c *Collector) SearchIssues(ctx context.Context, viewer models.Viewer, q string) SearchResult {
	var result gogithub.IssuesSearchResult
	if err := c.api.GetJSON(ctx, viewer.Token, "/search/issues", searchParams(q), &result); err != nil {
		return SearchResult{Err: fmt.Errorf("searching issues %q: %w", q, err)}
	}
	return SearchResult{Count: result.GetTotal()}
}

// SearchCommits returns the total count of commits matching q
func (c *Collector) SearchCommits(ctx context.Context, viewer models.Viewer, q string) SearchResult {
	var result gogithub.CommitsSearchResult
	if err := c.api.GetJSON(ctx, viewer.Token, "/search/commits", searchParams(q), &result); err != nil {
		return SearchResult{Err: fmt.Errorf("searching commits %q: %w", q, err)}
	}
	return SearchResult{Count: result.GetTotal()}
}

func (c *Collector) runSearch(ctx context.Context, viewer models.Viewer, sq searchQuery) SearchResult {
	if sq.commits {
		return c.SearchCommits(ctx, viewer, sq.q)
	}
	return c.SearchIssues(ctx, viewer, sq.q)
}

// only total_count is read, so a single item per page is enough
func searchParams(q string) url.Values {
	return url.Values{
		"q":        {q},
		"per_page": {"1"},
	}
}
