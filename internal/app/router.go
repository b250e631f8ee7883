package app

import (
	"context"
	"net/http"
	"time"

	"forknight/internal/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// initializeRouter configures all routes for the application
func (a *App) initializeRouter(router *mux.Router) {
	// Set custom error handlers for 404 and 405 responses
	router.NotFoundHandler = a.requestIDMiddleware(a.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusNotFound, response.Fail("Route not found"))
	})))
	router.MethodNotAllowedHandler = a.requestIDMiddleware(a.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusMethodNotAllowed, response.Fail("Method not allowed"))
	})))

	// Apply common middleware
	router.Use(a.requestIDMiddleware)
	router.Use(a.loggingMiddleware)
	router.Use(a.recoveryMiddleware)
	router.Use(a.rateLimitMiddleware)

	router.HandleFunc("/health", a.healthCheck).Methods(http.MethodGet)

	initAuthRoutes(router.PathPrefix("/auth").Subrouter(), a)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/leaderboard", a.getLeaderboard).Methods(http.MethodGet)

	// GitHub activity endpoints require a viewer
	initGitHubRoutes(api.PathPrefix("/github").Subrouter(), a)
}

// initAuthRoutes configures the OAuth login flow
func initAuthRoutes(router *mux.Router, a *App) {
	router.HandleFunc("/github", a.auth.Login).Methods(http.MethodGet)
	router.HandleFunc("/github/callback", a.auth.Callback).Methods(http.MethodGet)
	router.HandleFunc("/logout", a.auth.Logout).Methods(http.MethodPost)
}

// initGitHubRoutes configures the authenticated activity routes
func initGitHubRoutes(router *mux.Router, a *App) {
	router.Use(a.auth.RequireViewer)

	router.HandleFunc("/profile", a.getProfile).Methods(http.MethodGet)
	router.HandleFunc("/stats", a.getStats).Methods(http.MethodGet)
	router.HandleFunc("/weekly-activity", a.getWeeklyActivity).Methods(http.MethodGet)
	router.HandleFunc("/achievements", a.getAchievements).Methods(http.MethodGet)
	router.HandleFunc("/challenges", a.getChallenges).Methods(http.MethodGet)
	router.HandleFunc("/repos", a.getRepos).Methods(http.MethodGet)
	router.HandleFunc("/summary", a.getSummary).Methods(http.MethodGet)
	router.HandleFunc("/dashboard", a.getDashboard).Methods(http.MethodGet)
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestIDMiddleware propagates or assigns a request id
func (a *App) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// loggingMiddleware logs information about each request
func (a *App) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		a.log.Info().
			Str("request_id", requestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}

// recoveryMiddleware recovers from panics and returns a 500 error
func (a *App) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				a.log.Error().
					Interface("error", err).
					Str("request_id", requestID(r.Context())).
					Str("path", r.URL.Path).
					Msg("Panic recovered in request handler")

				response.JSON(w, http.StatusInternalServerError, response.Error("Internal server error", nil))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware rejects clients exceeding their request budget
func (a *App) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := a.proxies.clientIP(r)
		if !a.limiter.allow(ip) {
			a.log.Warn().
				Str("request_id", requestID(r.Context())).
				Str("client_ip", ip).
				Msg("Rate limit exceeded")
			response.JSON(w, http.StatusTooManyRequests, response.Fail("Too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
