package app

import (
	"net/http"
	"strconv"

	"forknight/internal/auth"
	apperrors "forknight/internal/errors"
	"forknight/internal/models"
	"forknight/internal/response"
	"forknight/internal/service"
)

// healthCheck handles the health check endpoint
func (a *App) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Success("Service is healthy", map[string]string{"status": "ok"}))
}

// viewerHandler adapts a viewer-scoped operation into a handler. Successful
// results are written as the bare payload.
func viewerHandler[T any](a *App, op string, fn func(r *http.Request, viewer models.Viewer) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := auth.ViewerFromContext(r.Context())
		if !ok {
			a.writeError(w, r, op, apperrors.ErrUnauthorized)
			return
		}

		result, err := fn(r, viewer)
		if err != nil {
			a.writeError(w, r, op, err)
			return
		}

		a.log.Debug().
			Str("request_id", requestID(r.Context())).
			Str("op", op).
			Str("login", viewer.Login).
			Msg("Request served")
		response.JSON(w, http.StatusOK, result)
	}
}

func (a *App) getProfile(w http.ResponseWriter, r *http.Request) {
	viewerHandler(a, "profile", func(r *http.Request, v models.Viewer) (*models.Profile, error) {
		return a.service.Profile(r.Context(), v)
	})(w, r)
}

func (a *App) getStats(w http.ResponseWriter, r *http.Request) {
	viewerHandler(a, "stats", func(r *http.Request, v models.Viewer) (*models.UserStats, error) {
		return a.service.Stats(r.Context(), v)
	})(w, r)
}

func (a *App) getWeeklyActivity(w http.ResponseWriter, r *http.Request) {
	viewerHandler(a, "weekly-activity", func(r *http.Request, v models.Viewer) (*models.ContributionWindow, error) {
		return a.service.Weekly(r.Context(), v)
	})(w, r)
}

func (a *App) getAchievements(w http.ResponseWriter, r *http.Request) {
	viewerHandler(a, "achievements", func(r *http.Request, v models.Viewer) (*service.AchievementsResult, error) {
		return a.service.Achievements(r.Context(), v)
	})(w, r)
}

func (a *App) getChallenges(w http.ResponseWriter, r *http.Request) {
	viewerHandler(a, "challenges", func(r *http.Request, v models.Viewer) (*service.ChallengesResult, error) {
		return a.service.Challenges(r.Context(), v)
	})(w, r)
}

func (a *App) getRepos(w http.ResponseWriter, r *http.Request) {
	viewerHandler(a, "repos", func(r *http.Request, v models.Viewer) ([]models.Repository, error) {
		return a.service.Repos(r.Context(), v)
	})(w, r)
}

func (a *App) getSummary(w http.ResponseWriter, r *http.Request) {
	viewerHandler(a, "summary", func(r *http.Request, v models.Viewer) (*models.Summary, error) {
		return a.service.Summary(r.Context(), v)
	})(w, r)
}

func (a *App) getDashboard(w http.ResponseWriter, r *http.Request) {
	viewerHandler(a, "dashboard", func(r *http.Request, v models.Viewer) (*service.Dashboard, error) {
		return a.service.Dashboard(r.Context(), v)
	})(w, r)
}

// getLeaderboard handles the public leaderboard
func (a *App) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.JSON(w, http.StatusBadRequest, response.Fail("limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := a.service.Leaderboard(r.Context(), limit)
	if err != nil {
		a.writeError(w, r, "leaderboard", err)
		return
	}
	response.JSON(w, http.StatusOK, entries)
}
