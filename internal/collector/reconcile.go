package collector

import (
	"time"

	apperrors "forknight/internal/errors"
	"forknight/internal/models"
)

// Reconcile merges an event-derived and a search-derived estimate of the same
// metric by taking the larger of the two. The event stream is capped and
// undercounts, the search index lags behind recent activity; neither is
// preferred. A failed search counts as zero so the event estimate stands alone.
func Reconcile(eventDerived int, search SearchResult) int {
	searchDerived := search.Count
	if search.Err != nil || searchDerived < 0 {
		searchDerived = 0
	}
	if eventDerived < 0 {
		eventDerived = 0
	}
	return max(eventDerived, searchDerived)
}

// sources is everything fetched for one collection
type sources struct {
	profile       *models.Profile
	events        []models.ActivityEvent
	repos         []models.Repository
	contributions *Contributions
	searches      map[models.Metric]SearchResult
	streak        models.StreakState
	now           time.Time
	weekStart     time.Time
	monthStart    time.Time
	loc           *time.Location
}

// metricFunc derives one metric from the fetched sources
type metricFunc func(s *sources) int

// metricTable holds the single reconciliation rule of every metric
var metricTable = map[models.Metric]metricFunc{
	// lifetime commits only exist in the contribution calendar
	models.MetricTotalCommits: func(s *sources) int {
		return s.contributions.CalendarTotal
	},
	models.MetricTotalPRs: func(s *sources) int {
		return Reconcile(s.countEvents(models.EventPullRequest, time.Time{}, opened), s.search(models.MetricTotalPRs))
	},
	models.MetricTotalIssues: func(s *sources) int {
		return Reconcile(s.countEvents(models.EventIssue, time.Time{}, opened), s.search(models.MetricTotalIssues))
	},
	// the repository list includes private repositories, the profile counter does not
	models.MetricTotalRepos: func(s *sources) int {
		return Reconcile(len(s.repos), SearchResult{Count: s.profile.PublicRepos})
	},
	models.MetricCurrentStreak: func(s *sources) int {
		return s.streak.CurrentStreak
	},
	models.MetricLongestStreak: func(s *sources) int {
		return s.streak.LongestStreak
	},
	models.MetricWeeklyCommits: func(s *sources) int {
		return Reconcile(s.sumCommits(s.weekStart), SearchResult{Count: s.contributions.Window.Commits})
	},
	models.MetricWeeklyPRs: func(s *sources) int {
		return Reconcile(s.countEvents(models.EventPullRequest, s.weekStart, opened), SearchResult{Count: s.contributions.Window.PullRequests})
	},
	models.MetricWeeklyReviews: func(s *sources) int {
		return Reconcile(s.countEvents(models.EventReview, s.weekStart, nil), SearchResult{Count: s.contributions.Window.Reviews})
	},
	models.MetricWeeklyIssues: func(s *sources) int {
		return Reconcile(s.countEvents(models.EventIssue, s.weekStart, opened), SearchResult{Count: s.contributions.Window.Issues})
	},
	models.MetricMonthlyCommits: func(s *sources) int {
		return Reconcile(s.sumCommits(s.monthStart), s.search(models.MetricMonthlyCommits))
	},
	models.MetricMonthlyPRs: func(s *sources) int {
		return Reconcile(s.countEvents(models.EventPullRequest, s.monthStart, opened), s.search(models.MetricMonthlyPRs))
	},
	models.MetricMonthlyMergedPRs: func(s *sources) int {
		return Reconcile(s.countEvents(models.EventPullRequest, s.monthStart, merged), s.search(models.MetricMonthlyMergedPRs))
	},
	models.MetricMonthlyIssues: func(s *sources) int {
		return Reconcile(s.countEvents(models.EventIssue, s.monthStart, opened), s.search(models.MetricMonthlyIssues))
	},
	models.MetricMonthlyReviews: func(s *sources) int {
		return s.countEvents(models.EventReview, s.monthStart, nil)
	},
	models.MetricMonthlyNewRepos: func(s *sources) int {
		created := 0
		for _, r := range s.repos {
			if !r.Fork && !r.CreatedAt.Before(s.monthStart) {
				created++
			}
		}
		return Reconcile(s.countEvents(models.EventCreateRepo, s.monthStart, nil), SearchResult{Count: created})
	},
	models.MetricActiveDays: func(s *sources) int {
		days := make(map[string]struct{})
		for _, e := range s.events {
			if e.Timestamp.Before(s.monthStart) {
				continue
			}
			days[e.Timestamp.In(s.loc).Format("2006-01-02")] = struct{}{}
		}
		return len(days)
	},
}

func opened(e models.ActivityEvent) bool { return e.Opened }
func merged(e models.ActivityEvent) bool { return e.Merged }

// countEvents counts events of type t at or after since that match keep
func (s *sources) countEvents(t models.EventType, since time.Time, keep func(models.ActivityEvent) bool) int {
	n := 0
	for _, e := range s.events {
		if e.Type != t || e.Timestamp.Before(since) {
			continue
		}
		if keep != nil && !keep(e) {
			continue
		}
		n++
	}
	return n
}

// sumCommits adds up the commits of push events at or after since
func (s *sources) sumCommits(since time.Time) int {
	n := 0
	for _, e := range s.events {
		if e.Type == models.EventPush && !e.Timestamp.Before(since) {
			n += e.Commits
		}
	}
	return n
}

func (s *sources) search(m models.Metric) SearchResult {
	return s.searches[m]
}

// reconcile evaluates the metric table and reports every metric that had to
// fall back because its search source failed
func reconcile(s *sources) (models.Metrics, []*apperrors.PartialDataError) {
	metrics := make(models.Metrics, len(metricTable))
	for _, m := range models.KnownMetrics {
		metrics[m] = metricTable[m](s)
	}

	var partial []*apperrors.PartialDataError
	for _, m := range models.KnownMetrics {
		if res, ok := s.searches[m]; ok && res.Err != nil {
			partial = append(partial, apperrors.NewPartialDataError(string(m), "search", res.Err))
		}
	}
	return metrics, partial
}
