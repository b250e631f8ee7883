// Package catalog loads the rank ladder, achievement and challenge definitions
// and the leaderboard fixture.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"

	"forknight/internal/challenge"
	"forknight/internal/models"
	"forknight/internal/scoring"

	"github.com/spf13/viper"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the data the engines evaluate against
type Catalog struct {
	Ranks        []scoring.RankTier        `mapstructure:"ranks"`
	Achievements []scoring.AchievementDef  `mapstructure:"achievements"`
	Challenges   []challenge.Definition    `mapstructure:"challenges"`
	Leaderboard  []models.LeaderboardEntry `mapstructure:"leaderboard"`
}

// Default returns the embedded catalog
func Default() (*Catalog, error) {
	return Load("")
}

// Load reads the embedded catalog and, when path is set, merges the file at
// path over it. Top-level sections present in the file replace the embedded
// ones as a whole.
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultCatalog)); err != nil {
		return nil, fmt.Errorf("failed to read embedded catalog: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
		}
	}

	var cat Catalog
	if err := v.Unmarshal(&cat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}

	return &cat, nil
}

// Validate checks ids, thresholds and metric names across the catalog
func (c *Catalog) Validate() error {
	if len(c.Ranks) == 0 {
		return fmt.Errorf("rank ladder is empty")
	}
	if err := scoring.ValidateLadder(c.Ranks); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, a := range c.Achievements {
		if a.ID == "" {
			return fmt.Errorf("achievement %q has no id", a.Name)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate achievement id: %s", a.ID)
		}
		seen[a.ID] = true
		if !models.IsKnownMetric(a.Metric) {
			return fmt.Errorf("achievement %s: unknown metric %q", a.ID, a.Metric)
		}
		if a.Threshold < 0 || a.XP < 0 {
			return fmt.Errorf("achievement %s: threshold and xp must not be negative", a.ID)
		}
	}

	seen = make(map[string]bool)
	for _, ch := range c.Challenges {
		if err := ch.Validate(); err != nil {
			return err
		}
		if seen[ch.ID] {
			return fmt.Errorf("duplicate challenge id: %s", ch.ID)
		}
		seen[ch.ID] = true
	}

	for i, e := range c.Leaderboard {
		if e.Name == "" {
			return fmt.Errorf("leaderboard entry %d has no name", i)
		}
		if e.XP < 0 || e.Level < 0 {
			return fmt.Errorf("leaderboard entry %s: xp and level must not be negative", e.Name)
		}
	}

	return nil
}
