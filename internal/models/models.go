package models

import "time"

// EventType classifies a normalized GitHub event
type EventType string

const (
	EventPush        EventType = "push"
	EventPullRequest EventType = "pull_request"
	EventIssue       EventType = "issue"
	EventReview      EventType = "review"
	EventCreateRepo  EventType = "create_repo"
	EventOther       EventType = "other"
)

// ActivityEvent is a timestamped user action taken from the events API.
// Commits is set for push events, Merged and Opened for pull requests,
// Opened for issues.
type ActivityEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Repo      string    `json:"repo,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Commits   int       `json:"commits,omitempty"`
	Opened    bool      `json:"opened,omitempty"`
	Merged    bool      `json:"merged,omitempty"`
}

// ContributionWindow holds aggregate counts over a bounded time range
type ContributionWindow struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Commits      int       `json:"commits"`
	PullRequests int       `json:"prs"`
	Reviews      int       `json:"reviews"`
	Issues       int       `json:"issues"`
}

// UserStats is a point-in-time snapshot of lifetime totals and the weekly window
type UserStats struct {
	TotalCommits  int                `json:"totalCommits"`
	TotalPRs      int                `json:"totalPRs"`
	TotalIssues   int                `json:"totalIssues"`
	TotalRepos    int                `json:"repos"`
	CurrentStreak int                `json:"currentStreak"`
	Weekly        ContributionWindow `json:"weekly"`
}

// Profile is the subset of the GitHub user exposed to the dashboard
type Profile struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatarUrl"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"publicRepos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

// Repository is a repository owned by the viewer
type Repository struct {
	Name        string    `json:"name"`
	FullName    string    `json:"fullName"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	URL         string    `json:"url"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Fork        bool      `json:"fork"`
	CreatedAt   time.Time `json:"createdAt"`
	PushedAt    time.Time `json:"pushedAt"`
}

// Achievement is an unlockable condition evaluated every request.
// Unlocked reflects the current state only; no unlock time is kept.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Rarity      string `json:"rarity,omitempty"`
	Unlocked    bool   `json:"unlocked"`
	XP          int    `json:"xp"`
}

// ChallengeType groups challenges for presentation
type ChallengeType string

const (
	ChallengeStreak      ChallengeType = "streak"
	ChallengePR          ChallengeType = "pr"
	ChallengeIssues      ChallengeType = "issues"
	ChallengeReview      ChallengeType = "review"
	ChallengeRepo        ChallengeType = "repo"
	ChallengeConsistency ChallengeType = "consistency"
	ChallengeWeekly      ChallengeType = "weekly"
)

// Challenge is a progress-tracked goal. Progress is not clamped to Total;
// ActualProgress is only reported when it exceeds Total.
type Challenge struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Type           ChallengeType `json:"type"`
	Progress       int           `json:"progress"`
	Total          int           `json:"total"`
	XP             int           `json:"xp"`
	Timeframe      string        `json:"timeframe,omitempty"`
	ActualProgress *int          `json:"actualProgress,omitempty"`
	Static         bool          `json:"static"`
	Completed      bool          `json:"completed"`
	Percentage     int           `json:"percentage"`
}

// StreakState is the current consecutive-day commit run
type StreakState struct {
	CurrentStreak int       `json:"currentStreak"`
	LongestStreak int       `json:"longestStreak"`
	LastActiveDay time.Time `json:"lastActiveDay,omitempty"`
}

// LeaderboardEntry is a ranked row of the leaderboard fixture
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	XP    int    `json:"xp"`
	Level int    `json:"level"`
	Badge string `json:"badge"`
}

// Summary is the player card shown at the top of the dashboard
type Summary struct {
	Name          string `json:"name"`
	Level         int    `json:"level"`
	XP            int    `json:"xp"`
	XPToNextLevel int    `json:"xpToNext"`
	Rank          string `json:"rank"`
	CurrentStreak int    `json:"streak"`
	LongestStreak int    `json:"longestStreak"`
	TotalCommits  int    `json:"totalCommits"`
	TotalPRs      int    `json:"totalPRs"`
	TotalRepos    int    `json:"totalRepos"`
}

// RateLimitInfo stores GitHub API rate limit information
type RateLimitInfo struct {
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
	Limit     int       `json:"limit"`
	Resource  string    `json:"resource"`
}

// Viewer identifies the authenticated user for one request. The token is
// never serialized.
type Viewer struct {
	Login string `json:"login"`
	Token string `json:"-"`
}
