// Package service composes collection, scoring and challenge evaluation into
// the payloads served by the API.
package service

import (
	"context"
	"fmt"
	"time"

	"forknight/internal/catalog"
	"forknight/internal/challenge"
	"forknight/internal/collector"
	"forknight/internal/errors"
	"forknight/internal/models"
	"forknight/internal/scoring"

	"github.com/rs/zerolog"
)

// AchievementsResult is the achievements payload
type AchievementsResult struct {
	Achievements []models.Achievement `json:"achievements"`
	TotalXP      int                  `json:"totalXP"`
}

// ChallengesResult is the challenges payload
type ChallengesResult struct {
	Challenges []models.Challenge `json:"challenges"`
}

// Dashboard is every panel computed from a single collection
type Dashboard struct {
	Profile      models.Profile            `json:"profile"`
	Stats        models.UserStats          `json:"stats"`
	Weekly       models.ContributionWindow `json:"weekly"`
	Achievements []models.Achievement      `json:"achievements"`
	TotalXP      int                       `json:"totalXP"`
	Challenges   []models.Challenge        `json:"challenges"`
	Repos        []models.Repository       `json:"repos"`
	Summary      models.Summary            `json:"summary"`
	Streak       models.StreakState        `json:"streak"`
	// Degraded lists metrics computed without their search source
	Degraded    []string `json:"degraded,omitempty"`
	CollectedAt string   `json:"collectedAt"`
}

// Service handles the request-scoped business logic
type Service struct {
	collector        Collector
	scorer           *scoring.Scorer
	catalog          *catalog.Catalog
	leaderboard      Leaderboard
	leaderboardLimit int
	logger           *zerolog.Logger
}

// New creates a new service instance
func New(c Collector, scorer *scoring.Scorer, cat *catalog.Catalog, lb Leaderboard, leaderboardLimit int, logger *zerolog.Logger) *Service {
	if leaderboardLimit <= 0 {
		leaderboardLimit = 50
	}
	return &Service{
		collector:        c,
		scorer:           scorer,
		catalog:          cat,
		leaderboard:      lb,
		leaderboardLimit: leaderboardLimit,
		logger:           logger,
	}
}

// LoginForToken returns the login owning token
func (s *Service) LoginForToken(ctx context.Context, token string) (string, error) {
	profile, err := s.collector.Profile(ctx, models.Viewer{Token: token})
	if err != nil {
		return "", err
	}
	return profile.Login, nil
}

// ResolveViewer fills in the login of a viewer known only by token
func (s *Service) ResolveViewer(ctx context.Context, viewer models.Viewer) (models.Viewer, error) {
	if viewer.Token == "" {
		return viewer, errors.ErrUnauthorized
	}
	if viewer.Login != "" {
		return viewer, nil
	}

	login, err := s.LoginForToken(ctx, viewer.Token)
	if err != nil {
		return viewer, fmt.Errorf("resolving viewer: %w", err)
	}
	viewer.Login = login
	return viewer, nil
}

// Profile returns the viewer's GitHub profile
func (s *Service) Profile(ctx context.Context, viewer models.Viewer) (*models.Profile, error) {
	if viewer.Token == "" {
		return nil, errors.ErrUnauthorized
	}
	return s.collector.Profile(ctx, viewer)
}

// Repos returns the repositories owned by the viewer
func (s *Service) Repos(ctx context.Context, viewer models.Viewer) ([]models.Repository, error) {
	if viewer.Token == "" {
		return nil, errors.ErrUnauthorized
	}
	repos, err := s.collector.Repos(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if repos == nil {
		repos = []models.Repository{}
	}
	return repos, nil
}

// Weekly returns the contribution counts of the weekly window
func (s *Service) Weekly(ctx context.Context, viewer models.Viewer) (*models.ContributionWindow, error) {
	if viewer.Token == "" {
		return nil, errors.ErrUnauthorized
	}
	weekly, err := s.collector.Weekly(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return &weekly, nil
}

// Stats returns the reconciled lifetime totals and the weekly window
func (s *Service) Stats(ctx context.Context, viewer models.Viewer) (*models.UserStats, error) {
	snap, err := s.collect(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return &snap.Stats, nil
}

// Achievements evaluates the achievement catalog
func (s *Service) Achievements(ctx context.Context, viewer models.Viewer) (*AchievementsResult, error) {
	snap, err := s.collect(ctx, viewer)
	if err != nil {
		return nil, err
	}
	achievements, totalXP := scoring.EvaluateAchievements(s.catalog.Achievements, snap.Metrics)
	return &AchievementsResult{Achievements: achievements, TotalXP: totalXP}, nil
}

// Challenges evaluates the challenge catalog
func (s *Service) Challenges(ctx context.Context, viewer models.Viewer) (*ChallengesResult, error) {
	snap, err := s.collect(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return &ChallengesResult{Challenges: challenge.Evaluate(s.catalog.Challenges, snap.Metrics)}, nil
}

// Summary returns the player card
func (s *Service) Summary(ctx context.Context, viewer models.Viewer) (*models.Summary, error) {
	snap, err := s.collect(ctx, viewer)
	if err != nil {
		return nil, err
	}
	_, totalXP := scoring.EvaluateAchievements(s.catalog.Achievements, snap.Metrics)
	summary := s.scorer.Summary(displayName(snap.Profile), snap.Metrics, totalXP)
	return &summary, nil
}

// Dashboard computes every panel from one collection
func (s *Service) Dashboard(ctx context.Context, viewer models.Viewer) (*Dashboard, error) {
	snap, err := s.collect(ctx, viewer)
	if err != nil {
		return nil, err
	}

	achievements, totalXP := scoring.EvaluateAchievements(s.catalog.Achievements, snap.Metrics)
	repos := snap.Repos
	if repos == nil {
		repos = []models.Repository{}
	}

	dashboard := &Dashboard{
		Profile:      snap.Profile,
		Stats:        snap.Stats,
		Weekly:       snap.Stats.Weekly,
		Achievements: achievements,
		TotalXP:      totalXP,
		Challenges:   challenge.Evaluate(s.catalog.Challenges, snap.Metrics),
		Repos:        repos,
		Summary:      s.scorer.Summary(displayName(snap.Profile), snap.Metrics, totalXP),
		Streak:       snap.Streak,
		CollectedAt:  snap.CollectedAt.UTC().Format(time.RFC3339),
	}
	for _, pd := range snap.Partial {
		dashboard.Degraded = append(dashboard.Degraded, pd.Metric)
	}
	return dashboard, nil
}

// Leaderboard returns the top entries, capped at the configured limit
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > s.leaderboardLimit {
		limit = s.leaderboardLimit
	}
	entries, err := s.leaderboard.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return entries, nil
}

func (s *Service) collect(ctx context.Context, viewer models.Viewer) (*collector.Snapshot, error) {
	viewer, err := s.ResolveViewer(ctx, viewer)
	if err != nil {
		return nil, err
	}

	snap, err := s.collector.Collect(ctx, viewer)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("login", viewer.Login).
			Int("status", errors.StatusOf(err)).
			Msg("Failed to collect activity")
		return nil, err
	}
	return snap, nil
}

func displayName(p models.Profile) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Login
}
