package collector

import (
	"context"
	"fmt"
	"time"

	apperrors "forknight/internal/errors"
	"forknight/internal/models"
	"forknight/internal/streak"

	"github.com/sourcegraph/conc/pool"
)

// Snapshot is one reconciled collection for a viewer
type Snapshot struct {
	Profile     models.Profile
	Stats       models.UserStats
	Events      []models.ActivityEvent
	Repos       []models.Repository
	Streak      models.StreakState
	Metrics     models.Metrics
	Partial     []*apperrors.PartialDataError
	CollectedAt time.Time
}

// Collect fetches every source concurrently and reconciles them into a
// Snapshot. Any failed profile, event, repository or GraphQL call fails the
// whole collection; failed search calls only degrade their metrics.
func (c *Collector) Collect(ctx context.Context, viewer models.Viewer) (*Snapshot, error) {
	if viewer.Login == "" || viewer.Token == "" {
		return nil, fmt.Errorf("%w: viewer login and token are required", apperrors.ErrInvalidInput)
	}

	start := time.Now()
	now := c.now()
	src := &sources{
		now:        now,
		weekStart:  c.windowStart(now, c.weeklyDays),
		monthStart: c.windowStart(now, c.monthlyDays),
		loc:        c.loc,
	}

	queries := searchQueries(viewer.Login, src.monthStart)
	results := make([]SearchResult, len(queries))

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		profile, err := c.Profile(ctx, viewer)
		if err != nil {
			return err
		}
		src.profile = profile
		return nil
	})
	p.Go(func(ctx context.Context) error {
		events, err := c.Events(ctx, viewer, src.monthStart)
		if err != nil {
			return err
		}
		src.events = events
		return nil
	})
	p.Go(func(ctx context.Context) error {
		repos, err := c.Repos(ctx, viewer)
		if err != nil {
			return err
		}
		src.repos = repos
		return nil
	})
	p.Go(func(ctx context.Context) error {
		contributions, err := c.Contributions(ctx, viewer, src.weekStart, now)
		if err != nil {
			return err
		}
		src.contributions = contributions
		return nil
	})
	for i, q := range queries {
		p.Go(func(ctx context.Context) error {
			results[i] = c.runSearch(ctx, viewer, q)
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	src.searches = make(map[models.Metric]SearchResult, len(queries))
	for i, q := range queries {
		src.searches[q.metric] = results[i]
	}
	src.streak = streak.State(src.events, now, c.loc)

	metrics, partial := reconcile(src)
	for _, pd := range partial {
		c.logger.Warn().
			Err(pd.Err).
			Str("login", viewer.Login).
			Str("metric", pd.Metric).
			Int("status", apperrors.StatusOf(pd.Err)).
			Msg("Search index unavailable, using event-derived estimate")
	}

	snapshot := &Snapshot{
		Profile: *src.profile,
		Stats: models.UserStats{
			TotalCommits:  metrics.Get(models.MetricTotalCommits),
			TotalPRs:      metrics.Get(models.MetricTotalPRs),
			TotalIssues:   metrics.Get(models.MetricTotalIssues),
			TotalRepos:    metrics.Get(models.MetricTotalRepos),
			CurrentStreak: metrics.Get(models.MetricCurrentStreak),
			Weekly:        src.contributions.Window,
		},
		Events:      src.events,
		Repos:       src.repos,
		Streak:      src.streak,
		Metrics:     metrics,
		Partial:     partial,
		CollectedAt: now,
	}

	c.logger.Info().
		Str("login", viewer.Login).
		Int("events", len(src.events)).
		Int("repos", len(src.repos)).
		Int("partial", len(partial)).
		Dur("duration", time.Since(start)).
		Msg("Collected activity")

	return snapshot, nil
}
