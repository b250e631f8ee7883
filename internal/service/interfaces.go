package service

import (
	"context"

	"forknight/internal/collector"
	"forknight/internal/models"
)

// Collector defines the GitHub activity operations the service depends on
type Collector interface {
	Profile(ctx context.Context, viewer models.Viewer) (*models.Profile, error)
	Repos(ctx context.Context, viewer models.Viewer) ([]models.Repository, error)
	Weekly(ctx context.Context, viewer models.Viewer) (models.ContributionWindow, error)
	Collect(ctx context.Context, viewer models.Viewer) (*collector.Snapshot, error)
}

// Leaderboard defines the leaderboard source
type Leaderboard interface {
	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}
