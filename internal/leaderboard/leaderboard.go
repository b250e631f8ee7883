// Package leaderboard serves the ranked player list from the catalog fixture
// or from Postgres.
package leaderboard

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	apperrors "forknight/internal/errors"
	"forknight/internal/models"
)

// Store returns the top entries, highest XP first, ranked from 1
type Store interface {
	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// BadgeFunc names the badge for an XP total
type BadgeFunc func(xp int) string

// StaticStore serves a fixed list of entries
type StaticStore struct {
	entries []models.LeaderboardEntry
}

// NewStaticStore ranks entries by XP. Entries without a badge get one from badge.
func NewStaticStore(entries []models.LeaderboardEntry, badge BadgeFunc) *StaticStore {
	ranked := append([]models.LeaderboardEntry(nil), entries...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].XP > ranked[j].XP })
	for i := range ranked {
		ranked[i].Rank = i + 1
		if ranked[i].Badge == "" && badge != nil {
			ranked[i].Badge = badge(ranked[i].XP)
		}
	}
	return &StaticStore{entries: ranked}
}

// Top returns at most limit entries
func (s *StaticStore) Top(_ context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	return append([]models.LeaderboardEntry(nil), s.entries[:limit]...), nil
}

// PostgresStore reads entries from the leaderboard_entries table
type PostgresStore struct {
	db    *sql.DB
	badge BadgeFunc
}

// NewPostgresStore creates a PostgresStore
func NewPostgresStore(db *sql.DB, badge BadgeFunc) *PostgresStore {
	return &PostgresStore{db: db, badge: badge}
}

const topQuery = `
	SELECT
		ROW_NUMBER() OVER (ORDER BY xp DESC, name ASC) AS rank,
		name,
		xp,
		level,
		badge
	FROM leaderboard_entries
	ORDER BY xp DESC, name ASC
	LIMIT $1`

// Top returns at most limit entries
func (s *PostgresStore) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", apperrors.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, topQuery, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("Top", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.Name, &e.XP, &e.Level, &e.Badge); err != nil {
			return nil, apperrors.NewDatabaseError("Top", err)
		}
		if e.Badge == "" && s.badge != nil {
			e.Badge = s.badge(e.XP)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("Top", err)
	}
	return entries, nil
}

// SeedIfEmpty loads entries when the table has no rows and reports whether it did
func (s *PostgresStore) SeedIfEmpty(ctx context.Context, entries []models.LeaderboardEntry) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leaderboard_entries`).Scan(&count); err != nil {
		return false, apperrors.NewDatabaseError("SeedIfEmpty", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, apperrors.NewDatabaseError("SeedIfEmpty", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO leaderboard_entries (name, xp, level, badge) VALUES ($1, $2, $3, $4)`,
			e.Name, e.XP, e.Level, e.Badge,
		); err != nil {
			return false, apperrors.NewDatabaseError("SeedIfEmpty", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, apperrors.NewDatabaseError("SeedIfEmpty", err)
	}
	return true, nil
}
