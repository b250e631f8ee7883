// Package challenge evaluates challenge definitions against reconciled metrics.
package challenge

import (
	"fmt"
	"math"

	"forknight/internal/models"
)

// Source tells where a challenge's progress comes from
type Source string

const (
	// SourceLive reads progress from a collected metric
	SourceLive Source = "live"
	// SourceStatic reports a fixed placeholder progress
	SourceStatic Source = "static"
)

// Definition is one catalog entry
type Definition struct {
	ID          string               `mapstructure:"id"`
	Name        string               `mapstructure:"name"`
	Description string               `mapstructure:"description"`
	Type        models.ChallengeType `mapstructure:"type"`
	Source      Source               `mapstructure:"source"`
	Metric      models.Metric        `mapstructure:"metric"`
	Placeholder int                  `mapstructure:"placeholder"`
	Total       int                  `mapstructure:"total"`
	XP          int                  `mapstructure:"xp"`
	Timeframe   string               `mapstructure:"timeframe"`
}

// Validate checks a single definition
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("challenge has no id")
	}
	if d.Total <= 0 {
		return fmt.Errorf("challenge %s: total must be positive: %d", d.ID, d.Total)
	}
	if d.XP < 0 {
		return fmt.Errorf("challenge %s: xp must not be negative: %d", d.ID, d.XP)
	}
	switch d.Source {
	case SourceLive:
		if !models.IsKnownMetric(d.Metric) {
			return fmt.Errorf("challenge %s: unknown metric %q", d.ID, d.Metric)
		}
	case SourceStatic:
		if d.Placeholder < 0 {
			return fmt.Errorf("challenge %s: placeholder must not be negative", d.ID)
		}
	default:
		return fmt.Errorf("challenge %s: unknown source %q", d.ID, d.Source)
	}
	return nil
}

// Progress returns the unclamped progress of d
func (d Definition) Progress(metrics models.Metrics) int {
	if d.Source == SourceStatic {
		return d.Placeholder
	}
	return metrics.Get(d.Metric)
}

// Evaluate computes the state of every definition in order
func Evaluate(defs []Definition, metrics models.Metrics) []models.Challenge {
	challenges := make([]models.Challenge, 0, len(defs))
	for _, def := range defs {
		challenges = append(challenges, evaluate(def, metrics))
	}
	return challenges
}

func evaluate(def Definition, metrics models.Metrics) models.Challenge {
	progress := def.Progress(metrics)

	c := models.Challenge{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Type:        def.Type,
		Progress:    progress,
		Total:       def.Total,
		XP:          def.XP,
		Timeframe:   def.Timeframe,
		Static:      def.Source == SourceStatic,
		Completed:   progress >= def.Total,
		Percentage:  Percentage(progress, def.Total),
	}
	if progress > def.Total {
		actual := progress
		c.ActualProgress = &actual
	}
	return c
}

// Percentage returns round(min(progress/total, 1) * 100). A non-positive
// total yields 0.
func Percentage(progress, total int) int {
	if total <= 0 || progress <= 0 {
		return 0
	}
	ratio := math.Min(float64(progress)/float64(total), 1)
	return int(math.Round(ratio * 100))
}
