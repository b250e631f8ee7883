// Package auth implements the GitHub OAuth login flow and resolves the viewer
// of each API request from a sealed session cookie or a bearer token.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "forknight/internal/errors"
	"forknight/internal/models"
	"forknight/internal/response"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

const (
	stateCookieName = "forknight_oauth_state"
	stateTTL        = 10 * time.Minute
)

// LoginResolver returns the GitHub login that owns token
type LoginResolver func(ctx context.Context, token string) (string, error)

// Options configures a Manager
type Options struct {
	ClientID        string
	ClientSecret    string
	CallbackURL     string
	Scopes          []string
	SuccessRedirect string

	// Endpoint overrides the GitHub OAuth endpoint
	Endpoint *oauth2.Endpoint

	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager owns the OAuth configuration and the session cookie
type Manager struct {
	oauth           *oauth2.Config
	sealer          *sealer
	resolveLogin    LoginResolver
	cookieName      string
	ttl             time.Duration
	secure          bool
	successRedirect string
	logger          zerolog.Logger
	now             func() time.Time
}

// NewManager creates a Manager
func NewManager(opts Options, resolve LoginResolver, logger zerolog.Logger) (*Manager, error) {
	if len(opts.Secret) < 16 {
		return nil, fmt.Errorf("session secret must be at least 16 characters")
	}
	if resolve == nil {
		return nil, fmt.Errorf("login resolver is required")
	}
	if opts.CookieName == "" {
		opts.CookieName = "forknight_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}

	endpoint := githuboauth.Endpoint
	if opts.Endpoint != nil {
		endpoint = *opts.Endpoint
	}

	return &Manager{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.CallbackURL,
			Scopes:       opts.Scopes,
			Endpoint:     endpoint,
		},
		sealer:          newSealer(opts.Secret),
		resolveLogin:    resolve,
		cookieName:      opts.CookieName,
		ttl:             opts.TTL,
		secure:          opts.Secure,
		successRedirect: opts.SuccessRedirect,
		logger:          logger.With().Str("component", "auth").Logger(),
		now:             time.Now,
	}, nil
}

// Login redirects to GitHub's consent page with a fresh state value
func (m *Manager) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, m.oauth.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the OAuth exchange and issues the session cookie
func (m *Manager) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if denied := query.Get("error"); denied != "" {
		m.logger.Warn().Str("error", denied).Msg("GitHub authorization was not granted")
		response.JSON(w, http.StatusUnauthorized, response.Fail("GitHub authorization was not granted"))
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != query.Get("state") {
		response.JSON(w, http.StatusUnauthorized, response.Fail("Invalid OAuth state"))
		return
	}
	m.clearCookie(w, stateCookieName)

	code := query.Get("code")
	if code == "" {
		response.JSON(w, http.StatusBadRequest, response.Fail("Missing authorization code"))
		return
	}

	token, err := m.oauth.Exchange(r.Context(), code)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to exchange code for token")
		response.JSON(w, http.StatusBadGateway, response.Error("Failed to exchange code for token", nil))
		return
	}

	login, err := m.resolveLogin(r.Context(), token.AccessToken)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to resolve GitHub login")
		response.JSON(w, http.StatusBadGateway, response.Error("Failed to resolve GitHub user", nil))
		return
	}

	if err := m.SetSession(w, login, token.AccessToken); err != nil {
		m.logger.Error().Err(err).Str("login", login).Msg("Failed to issue session")
		response.JSON(w, http.StatusInternalServerError, response.Error("Failed to issue session", nil))
		return
	}

	m.logger.Info().Str("login", login).Msg("User logged in")

	if m.successRedirect == "" {
		response.JSON(w, http.StatusOK, response.Success("Logged in", models.Viewer{Login: login}))
		return
	}
	http.Redirect(w, r, m.successRedirect, http.StatusFound)
}

// Logout clears the session cookie
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) {
	m.clearCookie(w, m.cookieName)
	response.JSON(w, http.StatusOK, response.Success("Logged out", nil))
}

// SetSession seals login and token into the session cookie
func (m *Manager) SetSession(w http.ResponseWriter, login, token string) error {
	value, err := m.sealer.Seal(Session{
		Login:  login,
		Token:  token,
		Expiry: m.now().Add(m.ttl),
	})
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Authenticate resolves the viewer of r. A bearer token takes precedence over
// the session cookie; a viewer built from a bearer token has no login yet.
func (m *Manager) Authenticate(r *http.Request) (models.Viewer, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return models.Viewer{}, fmt.Errorf("%w: malformed authorization header", apperrors.ErrUnauthorized)
		}
		return models.Viewer{Token: token}, nil
	}

	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return models.Viewer{}, fmt.Errorf("%w: no session", apperrors.ErrUnauthorized)
	}

	session, err := m.sealer.Open(cookie.Value, m.now())
	if err != nil {
		return models.Viewer{}, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	return models.Viewer{Login: session.Login, Token: session.Token}, nil
}

// RequireViewer rejects unauthenticated requests and stores the viewer in the
// request context
func (m *Manager) RequireViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, err := m.Authenticate(r)
		if err != nil {
			m.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected unauthenticated request")
			response.JSON(w, http.StatusUnauthorized, response.Fail("Not authenticated"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type viewerKey struct{}

// WithViewer returns a copy of ctx carrying viewer
func WithViewer(ctx context.Context, viewer models.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, viewer)
}

// ViewerFromContext returns the viewer stored by RequireViewer
func ViewerFromContext(ctx context.Context) (models.Viewer, bool) {
	viewer, ok := ctx.Value(viewerKey{}).(models.Viewer)
	return viewer, ok
}
