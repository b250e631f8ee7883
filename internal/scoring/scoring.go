// Package scoring derives XP, level, rank title and achievement states from
// reconciled activity metrics.
package scoring

import (
	"fmt"

	"forknight/internal/models"
)

// Formula selects how XP is computed
type Formula string

const (
	// FormulaCommits uses lifetime commits as XP
	FormulaCommits Formula = "commits"
	// FormulaCommitsPlusAchievements adds the XP of every unlocked achievement
	FormulaCommitsPlusAchievements Formula = "commits_plus_achievements"
)

// DefaultLevelDivisor is the number of commits per level
const DefaultLevelDivisor = 50

// RankTier maps an XP threshold to a title
type RankTier struct {
	Threshold int    `mapstructure:"threshold" json:"threshold"`
	Label     string `mapstructure:"label" json:"label"`
}

// DefaultLadder is used when no ladder is configured
var DefaultLadder = []RankTier{
	{Threshold: 800, Label: "Legendary Coder"},
	{Threshold: 600, Label: "Elite Contributor"},
	{Threshold: 450, Label: "Pro Hacker"},
	{Threshold: 350, Label: "Skilled Dev"},
	{Threshold: 200, Label: "Code Explorer"},
	{Threshold: 100, Label: "Rookie Committer"},
	{Threshold: 0, Label: "Newbie"},
}

// AchievementDef unlocks when Metric reaches Threshold
type AchievementDef struct {
	ID          string        `mapstructure:"id"`
	Name        string        `mapstructure:"name"`
	Description string        `mapstructure:"description"`
	Category    string        `mapstructure:"category"`
	Rarity      string        `mapstructure:"rarity"`
	Metric      models.Metric `mapstructure:"metric"`
	Threshold   int           `mapstructure:"threshold"`
	XP          int           `mapstructure:"xp"`
}

// Unlocked reports whether the achievement's predicate holds for metrics
func (d AchievementDef) Unlocked(metrics models.Metrics) bool {
	return metrics.Get(d.Metric) >= d.Threshold
}

// Scorer holds the tunable scoring parameters
type Scorer struct {
	levelDivisor int
	formula      Formula
	ladder       []RankTier
}

// NewScorer validates the parameters and creates a Scorer. The ladder must be
// sorted by threshold, highest first.
func NewScorer(levelDivisor int, formula Formula, ladder []RankTier) (*Scorer, error) {
	if levelDivisor <= 0 {
		return nil, fmt.Errorf("level divisor must be positive: %d", levelDivisor)
	}
	switch formula {
	case FormulaCommits, FormulaCommitsPlusAchievements:
	default:
		return nil, fmt.Errorf("unknown xp formula: %q", formula)
	}
	if len(ladder) == 0 {
		ladder = DefaultLadder
	}
	if err := ValidateLadder(ladder); err != nil {
		return nil, err
	}

	return &Scorer{
		levelDivisor: levelDivisor,
		formula:      formula,
		ladder:       append([]RankTier(nil), ladder...),
	}, nil
}

// ValidateLadder checks that thresholds are strictly decreasing and labelled
func ValidateLadder(ladder []RankTier) error {
	for i, tier := range ladder {
		if tier.Label == "" {
			return fmt.Errorf("rank tier %d has no label", i)
		}
		if i > 0 && tier.Threshold >= ladder[i-1].Threshold {
			return fmt.Errorf("rank ladder must be sorted highest first: %d follows %d",
				tier.Threshold, ladder[i-1].Threshold)
		}
	}
	return nil
}

// Level returns floor(totalCommits / divisor) + 1
func (s *Scorer) Level(totalCommits int) int {
	if totalCommits < 0 {
		totalCommits = 0
	}
	return totalCommits/s.levelDivisor + 1
}

// XPToNextLevel returns divisor - (xp mod divisor)
func (s *Scorer) XPToNextLevel(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return s.levelDivisor - xp%s.levelDivisor
}

// Rank returns the label of the first tier whose threshold is at most xp, or
// the empty string when xp is below every threshold
func (s *Scorer) Rank(xp int) string {
	for _, tier := range s.ladder {
		if xp >= tier.Threshold {
			return tier.Label
		}
	}
	return ""
}

// XP applies the configured formula
func (s *Scorer) XP(totalCommits, achievementXP int) int {
	if s.formula == FormulaCommits {
		return totalCommits
	}
	return totalCommits + achievementXP
}

// EvaluateAchievements evaluates every definition independently and returns
// the achievement states with the summed XP of the unlocked ones
func EvaluateAchievements(defs []AchievementDef, metrics models.Metrics) ([]models.Achievement, int) {
	achievements := make([]models.Achievement, 0, len(defs))
	totalXP := 0
	for _, def := range defs {
		unlocked := def.Unlocked(metrics)
		if unlocked {
			totalXP += def.XP
		}
		achievements = append(achievements, models.Achievement{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Category:    def.Category,
			Rarity:      def.Rarity,
			Unlocked:    unlocked,
			XP:          def.XP,
		})
	}
	return achievements, totalXP
}

// Summary builds the player card for name from metrics and the XP earned
// from achievements
func (s *Scorer) Summary(name string, metrics models.Metrics, achievementXP int) models.Summary {
	totalCommits := metrics.Get(models.MetricTotalCommits)
	xp := s.XP(totalCommits, achievementXP)

	return models.Summary{
		Name:          name,
		Level:         s.Level(totalCommits),
		XP:            xp,
		XPToNextLevel: s.XPToNextLevel(xp),
		Rank:          s.Rank(xp),
		CurrentStreak: metrics.Get(models.MetricCurrentStreak),
		LongestStreak: metrics.Get(models.MetricLongestStreak),
		TotalCommits:  totalCommits,
		TotalPRs:      metrics.Get(models.MetricTotalPRs),
		TotalRepos:    metrics.Get(models.MetricTotalRepos),
	}
}
