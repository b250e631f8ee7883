package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"forknight/internal/app"
	"forknight/internal/auth"
	"forknight/internal/catalog"
	"forknight/internal/collector"
	"forknight/internal/config"
	"forknight/internal/database"
	"forknight/internal/github"
	"forknight/internal/leaderboard"
	"forknight/internal/scoring"
	"forknight/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := newLogger(cfg.Log)

	// Create context that listens for the interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error loading catalog")
	}

	scorer, err := scoring.NewScorer(cfg.Scoring.LevelDivisor, scoring.Formula(cfg.Scoring.XPFormula), cat.Ranks)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error creating scorer")
	}

	// Initialize GitHub client
	githubClient := github.NewClient(github.Options{
		APIURL:           cfg.GitHub.APIURL,
		GraphQLURL:       cfg.GitHub.GraphQLURL,
		Timeout:          cfg.GitHub.RequestTimeout,
		MaxRateLimitWait: cfg.GitHub.MaxRateLimitWait,
	})

	activity := collector.New(githubClient, logger, collector.Options{
		EventsPerPage:     cfg.GitHub.EventsPerPage,
		MaxEvents:         cfg.GitHub.MaxEvents,
		WeeklyWindowDays:  cfg.Scoring.WeeklyWindowDays,
		MonthlyWindowDays: cfg.Scoring.MonthlyWindowDays,
		Location:          cfg.Location(),
	})

	board, closeBoard, err := newLeaderboard(ctx, cfg, cat, scorer, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error creating leaderboard")
	}
	defer closeBoard()

	// Create service layer
	svcLogger := logger.With().Str("component", "service").Logger()
	svc := service.New(activity, scorer, cat, board, cfg.Leaderboard.Limit, &svcLogger)

	authManager, err := auth.NewManager(auth.Options{
		ClientID:        cfg.GitHub.ClientID,
		ClientSecret:    cfg.GitHub.ClientSecret,
		CallbackURL:     cfg.GitHub.CallbackURL,
		Scopes:          cfg.GitHub.Scopes,
		SuccessRedirect: cfg.GitHub.SuccessRedirect,
		Secret:          cfg.Session.Secret,
		CookieName:      cfg.Session.CookieName,
		TTL:             cfg.Session.TTL,
		Secure:          cfg.Session.Secure,
	}, svc.LoginForToken, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error creating auth manager")
	}
	if cfg.GitHub.ClientID == "" {
		logger.Warn().Msg("GitHub OAuth client id is not set, only bearer tokens will work")
	}

	// Initialize and start the application
	application, err := app.New(cfg, logger, svc, authManager)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error creating application")
	}

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// newLeaderboard builds the configured leaderboard source. The returned func
// releases its resources.
func newLeaderboard(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, scorer *scoring.Scorer, logger zerolog.Logger) (service.Leaderboard, func(), error) {
	if cfg.Leaderboard.Source != config.LeaderboardPostgres {
		return leaderboard.NewStaticStore(cat.Leaderboard, scorer.Rank), func() {}, nil
	}

	db, err := database.New(ctx, cfg.GetDSN(), database.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	store := leaderboard.NewPostgresStore(db.SQL(), scorer.Rank)
	seeded, err := store.SeedIfEmpty(ctx, cat.Leaderboard)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if seeded {
		logger.Info().Int("entries", len(cat.Leaderboard)).Msg("Seeded leaderboard from catalog")
	}

	return store, func() { db.Close() }, nil
}
