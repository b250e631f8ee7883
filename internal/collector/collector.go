// Package collector gathers raw activity for one viewer from the GitHub REST,
// search and GraphQL APIs and reconciles overlapping counts into metrics.
package collector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	apperrors "forknight/internal/errors"
	"forknight/internal/github"
	"forknight/internal/models"

	gogithub "github.com/google/go-github/v57/github"
	"github.com/rs/zerolog"
)

const (
	defaultEventsPerPage = 100
	defaultMaxEvents     = 100
	reposPerPage         = 100
	maxRepoPages         = 10
)

// MaxEventsLimit is the most events the GitHub events API serves per user
const MaxEventsLimit = 300

// Options configures a Collector. Zero values fall back to the defaults.
type Options struct {
	EventsPerPage     int
	MaxEvents         int
	WeeklyWindowDays  int
	MonthlyWindowDays int
	Location          *time.Location
	Now               func() time.Time
}

// Collector fetches activity through a github.API
type Collector struct {
	api         github.API
	logger      zerolog.Logger
	perPage     int
	maxEvents   int
	weeklyDays  int
	monthlyDays int
	loc         *time.Location
	now         func() time.Time
}

// New creates a Collector
func New(api github.API, logger zerolog.Logger, opts Options) *Collector {
	if opts.EventsPerPage <= 0 || opts.EventsPerPage > 100 {
		opts.EventsPerPage = defaultEventsPerPage
	}
	if opts.MaxEvents <= 0 {
		opts.MaxEvents = defaultMaxEvents
	}
	if opts.MaxEvents > MaxEventsLimit {
		opts.MaxEvents = MaxEventsLimit
	}
	if opts.WeeklyWindowDays <= 0 {
		opts.WeeklyWindowDays = 7
	}
	if opts.MonthlyWindowDays < opts.WeeklyWindowDays {
		opts.MonthlyWindowDays = 30
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Collector{
		api:         api,
		logger:      logger.With().Str("component", "collector").Logger(),
		perPage:     opts.EventsPerPage,
		maxEvents:   opts.MaxEvents,
		weeklyDays:  opts.WeeklyWindowDays,
		monthlyDays: opts.MonthlyWindowDays,
		loc:         opts.Location,
		now:         opts.Now,
	}
}

// Location returns the timezone used for calendar-day bucketing
func (c *Collector) Location() *time.Location {
	return c.loc
}

// Now returns the collector's notion of the current time
func (c *Collector) Now() time.Time {
	return c.now()
}

// windowStart returns local midnight, days calendar days before now
func (c *Collector) windowStart(now time.Time, days int) time.Time {
	local := now.In(c.loc)
	y, m, d := local.AddDate(0, 0, -days).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// Profile fetches the authenticated user
func (c *Collector) Profile(ctx context.Context, viewer models.Viewer) (*models.Profile, error) {
	var user gogithub.User
	if err := c.api.GetJSON(ctx, viewer.Token, "/user", nil, &user); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	if user.GetLogin() == "" {
		return nil, apperrors.NewUpstreamError("Profile", "/user", 200, "", fmt.Errorf("%w: response has no login", apperrors.ErrGitHubAPI))
	}

	return &models.Profile{
		Login:       user.GetLogin(),
		Name:        user.GetName(),
		AvatarURL:   user.GetAvatarURL(),
		Bio:         user.GetBio(),
		PublicRepos: user.GetPublicRepos(),
		Followers:   user.GetFollowers(),
		Following:   user.GetFollowing(),
	}, nil
}

// Repos fetches every repository owned by the viewer
func (c *Collector) Repos(ctx context.Context, viewer models.Viewer) ([]models.Repository, error) {
	var repos []models.Repository

	for page := 1; page <= maxRepoPages; page++ {
		query := url.Values{
			"affiliation": {"owner"},
			"sort":        {"created"},
			"per_page":    {strconv.Itoa(reposPerPage)},
			"page":        {strconv.Itoa(page)},
		}

		var batch []*gogithub.Repository
		if err := c.api.GetJSON(ctx, viewer.Token, "/user/repos", query, &batch); err != nil {
			return nil, fmt.Errorf("fetching repositories page %d: %w", page, err)
		}

		for _, r := range batch {
			repos = append(repos, models.Repository{
				Name:        r.GetName(),
				FullName:    r.GetFullName(),
				Description: r.GetDescription(),
				Language:    r.GetLanguage(),
				URL:         r.GetHTMLURL(),
				Stars:       r.GetStargazersCount(),
				Forks:       r.GetForksCount(),
				Fork:        r.GetFork(),
				CreatedAt:   r.GetCreatedAt().Time,
				PushedAt:    r.GetPushedAt().Time,
			})
		}

		if len(batch) < reposPerPage {
			break
		}
	}

	return repos, nil
}
