package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"forknight/internal/challenge"
	"forknight/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	assert.Len(t, cat.Ranks, 7)
	assert.Equal(t, "Legendary Coder", cat.Ranks[0].Label)
	assert.Equal(t, 800, cat.Ranks[0].Threshold)

	assert.NotEmpty(t, cat.Achievements)
	assert.GreaterOrEqual(t, len(cat.Challenges), 10)
	assert.Len(t, cat.Leaderboard, 5)
	assert.Equal(t, "CodeMaster3000", cat.Leaderboard[0].Name)

	var static, live int
	for _, ch := range cat.Challenges {
		switch ch.Source {
		case challenge.SourceStatic:
			static++
		case challenge.SourceLive:
			live++
			assert.True(t, models.IsKnownMetric(ch.Metric), ch.ID)
		}
	}
	assert.Positive(t, static, "catalog keeps placeholder challenges")
	assert.Positive(t, live)

	var codeNinja bool
	for _, a := range cat.Achievements {
		if a.Name == "Code Ninja" {
			codeNinja = true
			assert.Equal(t, models.MetricTotalCommits, a.Metric)
			assert.Equal(t, 50, a.Threshold)
		}
	}
	assert.True(t, codeNinja)
}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOverride(t *testing.T) {
	path := writeCatalog(t, `
challenges:
  - id: only-one
    name: Only One
    type: pr
    source: live
    metric: total_prs
    total: 3
    xp: 10
`)

	cat, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cat.Challenges, 1)
	assert.Equal(t, "only-one", cat.Challenges[0].ID)
	assert.Equal(t, models.ChallengePR, cat.Challenges[0].Type)
	assert.Len(t, cat.Ranks, 7, "sections absent from the file keep their defaults")
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unsorted ladder",
			content: `
ranks:
  - threshold: 10
    label: Low
  - threshold: 100
    label: High
`,
		},
		{
			name: "unknown achievement metric",
			content: `
achievements:
  - id: stars
    name: Stargazer
    metric: stars
    threshold: 10
`,
		},
		{
			name: "duplicate challenge id",
			content: `
challenges:
  - id: twice
    source: static
    total: 1
  - id: twice
    source: static
    total: 2
`,
		},
		{
			name: "zero challenge total",
			content: `
challenges:
  - id: empty
    source: live
    metric: total_prs
    total: 0
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeCatalog(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
