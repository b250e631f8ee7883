package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"forknight/internal/auth"
	"forknight/internal/config"
	"forknight/internal/models"
	"forknight/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// Service is the business logic behind the API routes
type Service interface {
	Profile(ctx context.Context, viewer models.Viewer) (*models.Profile, error)
	Stats(ctx context.Context, viewer models.Viewer) (*models.UserStats, error)
	Weekly(ctx context.Context, viewer models.Viewer) (*models.ContributionWindow, error)
	Achievements(ctx context.Context, viewer models.Viewer) (*service.AchievementsResult, error)
	Challenges(ctx context.Context, viewer models.Viewer) (*service.ChallengesResult, error)
	Repos(ctx context.Context, viewer models.Viewer) ([]models.Repository, error)
	Summary(ctx context.Context, viewer models.Viewer) (*models.Summary, error)
	Dashboard(ctx context.Context, viewer models.Viewer) (*service.Dashboard, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

type App struct {
	cfg     *config.Config
	log     zerolog.Logger
	service Service
	auth    *auth.Manager
	limiter *ipLimiter
	proxies *proxyResolver
	router  *mux.Router
	server  *http.Server
}

func New(cfg *config.Config, log zerolog.Logger, svc Service, authManager *auth.Manager) (*App, error) {
	if svc == nil || authManager == nil {
		return nil, fmt.Errorf("service and auth manager are required")
	}

	proxies, err := newProxyResolver(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:     cfg,
		log:     log,
		service: svc,
		auth:    authManager,
		limiter: newIPLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst, cfg.Server.LimiterIdleTTL),
		proxies: proxies,
	}

	app.router = mux.NewRouter()
	app.initializeRouter(app.router)

	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return app, nil
}

// Handler returns the routed handler with every middleware applied
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (a *App) Run(ctx context.Context) error {
	go a.limiter.run(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("Failed to shutdown server gracefully")
		}
	}()

	a.log.Info().Msgf("Starting server on port %d", a.cfg.Server.Port)
	if err := a.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	a.log.Info().Msg("Server stopped")
	return nil
}
