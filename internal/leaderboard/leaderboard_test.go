package leaderboard

import (
	"context"
	"testing"

	"forknight/internal/models"
	"forknight/internal/scoring"
	"forknight/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func badge(t *testing.T) BadgeFunc {
	t.Helper()
	s, err := scoring.NewScorer(scoring.DefaultLevelDivisor, scoring.FormulaCommits, scoring.DefaultLadder)
	require.NoError(t, err)
	return s.Rank
}

func TestStaticStore(t *testing.T) {
	store := NewStaticStore([]models.LeaderboardEntry{
		{Name: "CodeWarrior", XP: 18750, Level: 42},
		{Name: "CommitKid", XP: 120, Level: 3},
		{Name: "CodeMaster3000", XP: 25600, Level: 48, Badge: "Grandmaster"},
		{Name: "DevNinja", XP: 23400, Level: 45},
	}, badge(t))

	entries, err := store.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, models.LeaderboardEntry{Rank: 1, Name: "CodeMaster3000", XP: 25600, Level: 48, Badge: "Grandmaster"}, entries[0])
	assert.Equal(t, "DevNinja", entries[1].Name)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "Legendary Coder", entries[1].Badge)
	assert.Equal(t, "Rookie Committer", entries[3].Badge)

	top2, err := store.Top(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, top2, 2)

	top2[0].Name = "mutated"
	again, _ := store.Top(context.Background(), 1)
	assert.Equal(t, "CodeMaster3000", again[0].Name)
}

func setupTestDB(t *testing.T) *testutil.TestPostgres {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	pg, err := testutil.NewTestPostgres(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pg.Close(ctx))
	})
	return pg
}

func TestPostgresStore(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()
	store := NewPostgresStore(pg.DB, badge(t))

	t.Run("top entries are ranked by xp", func(t *testing.T) {
		require.NoError(t, pg.LoadFixtures())

		entries, err := store.Top(ctx, 3)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, "CodeMaster3000", entries[0].Name)
		assert.Equal(t, "Grandmaster", entries[0].Badge)
		assert.Equal(t, 2, entries[1].Rank)
		assert.Equal(t, "DevNinja", entries[1].Name)
		assert.Equal(t, "Legendary Coder", entries[1].Badge)
		assert.Equal(t, "CodeWarrior", entries[2].Name)
	})

	t.Run("seed only fills an empty table", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx, "leaderboard_entries"))

		seed := []models.LeaderboardEntry{{Name: "Solo", XP: 10, Level: 1}}
		seeded, err := store.SeedIfEmpty(ctx, seed)
		require.NoError(t, err)
		assert.True(t, seeded)

		seeded, err = store.SeedIfEmpty(ctx, seed)
		require.NoError(t, err)
		assert.False(t, seeded)

		entries, err := store.Top(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Newbie", entries[0].Badge)
	})

	t.Run("limit must be positive", func(t *testing.T) {
		_, err := store.Top(ctx, 0)
		assert.Error(t, err)
	})
}
