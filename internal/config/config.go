package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// XP formulas supported by the scoring engine
const (
	XPFormulaCommits                 = "commits"
	XPFormulaCommitsPlusAchievements = "commits_plus_achievements"
)

// The GitHub events API serves at most this many events per user
const maxEventsLimit = 300

// Leaderboard sources
const (
	LeaderboardStatic   = "static"
	LeaderboardPostgres = "postgres"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	GitHub      GitHubConfig      `mapstructure:"github"`
	Session     SessionConfig     `mapstructure:"session"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	LimiterIdleTTL    time.Duration `mapstructure:"limiter_idle_ttl"`
	TrustedProxies    []string      `mapstructure:"trusted_proxies"`
}

type GitHubConfig struct {
	APIURL           string        `mapstructure:"api_url"`
	GraphQLURL       string        `mapstructure:"graphql_url"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	MaxRateLimitWait time.Duration `mapstructure:"max_rate_limit_wait"`
	EventsPerPage    int           `mapstructure:"events_per_page"`
	MaxEvents        int           `mapstructure:"max_events"`
	ClientID         string        `mapstructure:"client_id"`
	ClientSecret     string        `mapstructure:"client_secret"`
	CallbackURL      string        `mapstructure:"callback_url"`
	Scopes           []string      `mapstructure:"scopes"`
	SuccessRedirect  string        `mapstructure:"success_redirect"`
}

type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

type ScoringConfig struct {
	LevelDivisor      int    `mapstructure:"level_divisor"`
	XPFormula         string `mapstructure:"xp_formula"`
	Timezone          string `mapstructure:"timezone"`
	WeeklyWindowDays  int    `mapstructure:"weekly_window_days"`
	MonthlyWindowDays int    `mapstructure:"monthly_window_days"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type LeaderboardConfig struct {
	Source string `mapstructure:"source"`
	Limit  int    `mapstructure:"limit"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional .env file, an optional YAML file
// and FORKNIGHT_* environment variables, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("FORKNIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.requests_per_second", 5)
	v.SetDefault("server.burst", 20)
	v.SetDefault("server.limiter_idle_ttl", "10m")
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("github.api_url", "https://api.github.com")
	v.SetDefault("github.graphql_url", "https://api.github.com/graphql")
	v.SetDefault("github.request_timeout", "15s")
	v.SetDefault("github.max_rate_limit_wait", "5s")
	v.SetDefault("github.events_per_page", 100)
	v.SetDefault("github.max_events", 100)
	v.SetDefault("github.client_id", "")
	v.SetDefault("github.client_secret", "")
	v.SetDefault("github.callback_url", "http://localhost:5000/auth/github/callback")
	v.SetDefault("github.scopes", []string{"read:user", "repo"})
	v.SetDefault("github.success_redirect", "http://localhost:5173/dashboard")

	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookie_name", "forknight_session")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.secure", false)

	v.SetDefault("scoring.level_divisor", 50)
	v.SetDefault("scoring.xp_formula", XPFormulaCommitsPlusAchievements)
	v.SetDefault("scoring.timezone", "UTC")
	v.SetDefault("scoring.weekly_window_days", 7)
	v.SetDefault("scoring.monthly_window_days", 30)

	v.SetDefault("catalog.path", "")

	v.SetDefault("leaderboard.source", LeaderboardStatic)
	v.SetDefault("leaderboard.limit", 50)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "forknight")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RequestsPerSecond <= 0 || c.Server.Burst <= 0 {
		return fmt.Errorf("server rate limit must be positive")
	}
	if c.Server.LimiterIdleTTL <= 0 {
		return fmt.Errorf("invalid limiter idle ttl: %s", c.Server.LimiterIdleTTL)
	}
	for _, cidr := range c.Server.TrustedProxies {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			return fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
	}

	if c.GitHub.APIURL == "" || c.GitHub.GraphQLURL == "" {
		return fmt.Errorf("GitHub API urls are required")
	}
	if c.GitHub.RequestTimeout <= 0 {
		return fmt.Errorf("invalid GitHub request timeout: %s", c.GitHub.RequestTimeout)
	}
	if c.GitHub.EventsPerPage <= 0 || c.GitHub.EventsPerPage > 100 {
		return fmt.Errorf("events per page must be between 1 and 100: %d", c.GitHub.EventsPerPage)
	}
	if c.GitHub.MaxEvents <= 0 || c.GitHub.MaxEvents > maxEventsLimit {
		return fmt.Errorf("max events must be between 1 and %d: %d", maxEventsLimit, c.GitHub.MaxEvents)
	}

	if len(c.Session.Secret) < 16 {
		return fmt.Errorf("session secret must be at least 16 characters")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("invalid session ttl: %s", c.Session.TTL)
	}

	if c.Scoring.LevelDivisor <= 0 {
		return fmt.Errorf("level divisor must be positive: %d", c.Scoring.LevelDivisor)
	}
	switch c.Scoring.XPFormula {
	case XPFormulaCommits, XPFormulaCommitsPlusAchievements:
	default:
		return fmt.Errorf("unknown xp formula: %q", c.Scoring.XPFormula)
	}
	if _, err := time.LoadLocation(c.Scoring.Timezone); err != nil {
		return fmt.Errorf("invalid scoring timezone %q: %w", c.Scoring.Timezone, err)
	}
	if c.Scoring.WeeklyWindowDays <= 0 || c.Scoring.MonthlyWindowDays < c.Scoring.WeeklyWindowDays {
		return fmt.Errorf("invalid activity windows: weekly=%d monthly=%d",
			c.Scoring.WeeklyWindowDays, c.Scoring.MonthlyWindowDays)
	}

	switch c.Leaderboard.Source {
	case LeaderboardStatic:
	case LeaderboardPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown leaderboard source: %q", c.Leaderboard.Source)
	}
	if c.Leaderboard.Limit <= 0 {
		return fmt.Errorf("invalid leaderboard limit: %d", c.Leaderboard.Limit)
	}

	return nil
}

func (d DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", d.Port)
	}
	if d.User == "" {
		return fmt.Errorf("database user is required")
	}
	if d.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if d.SSLMode == "" {
		return fmt.Errorf("database sslmode is required")
	}
	return nil
}

// Location returns the timezone used to bucket events into calendar days
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scoring.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
