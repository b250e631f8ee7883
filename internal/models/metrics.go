package models

// Metric names a reconciled value that achievements and challenges can read
type Metric string

const (
	MetricTotalCommits     Metric = "total_commits"
	MetricTotalPRs         Metric = "total_prs"
	MetricTotalIssues      Metric = "total_issues"
	MetricTotalRepos       Metric = "total_repos"
	MetricCurrentStreak    Metric = "current_streak"
	MetricLongestStreak    Metric = "longest_streak"
	MetricWeeklyCommits    Metric = "weekly_commits"
	MetricWeeklyPRs        Metric = "weekly_prs"
	MetricWeeklyReviews    Metric = "weekly_reviews"
	MetricWeeklyIssues     Metric = "weekly_issues"
	MetricMonthlyCommits   Metric = "monthly_commits"
	MetricMonthlyPRs       Metric = "monthly_prs"
	MetricMonthlyMergedPRs Metric = "monthly_merged_prs"
	MetricMonthlyIssues    Metric = "monthly_issues"
	MetricMonthlyReviews   Metric = "monthly_reviews"
	MetricMonthlyNewRepos  Metric = "monthly_new_repos"
	MetricActiveDays       Metric = "active_days"
)

// KnownMetrics lists every metric the collector produces
var KnownMetrics = []Metric{
	MetricTotalCommits,
	MetricTotalPRs,
	MetricTotalIssues,
	MetricTotalRepos,
	MetricCurrentStreak,
	MetricLongestStreak,
	MetricWeeklyCommits,
	MetricWeeklyPRs,
	MetricWeeklyReviews,
	MetricWeeklyIssues,
	MetricMonthlyCommits,
	MetricMonthlyPRs,
	MetricMonthlyMergedPRs,
	MetricMonthlyIssues,
	MetricMonthlyReviews,
	MetricMonthlyNewRepos,
	MetricActiveDays,
}

// IsKnownMetric reports whether m is produced by the collector
func IsKnownMetric(m Metric) bool {
	for _, known := range KnownMetrics {
		if known == m {
			return true
		}
	}
	return false
}

// Metrics maps metric names to reconciled values
type Metrics map[Metric]int

// Get returns the value for m, zero when absent
func (m Metrics) Get(metric Metric) int {
	return m[metric]
}
