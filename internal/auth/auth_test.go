package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	apperrors "forknight/internal/errors"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T, endpoint *oauth2.Endpoint, resolve LoginResolver) *Manager {
	t.Helper()
	if resolve == nil {
		resolve = func(ctx context.Context, token string) (string, error) { return "octocat", nil }
	}
	m, err := NewManager(Options{
		ClientID:        "client-id",
		ClientSecret:    "client-secret",
		CallbackURL:     "http://localhost:5000/auth/github/callback",
		Scopes:          []string{"read:user", "repo"},
		SuccessRedirect: "http://localhost:5173/dashboard",
		Endpoint:        endpoint,
		Secret:          testSecret,
		TTL:             time.Hour,
	}, resolve, zerolog.Nop())
	require.NoError(t, err)
	return m
}

func TestNewManagerRejectsShortSecret(t *testing.T) {
	_, err := NewManager(Options{Secret: "short"}, func(context.Context, string) (string, error) { return "", nil }, zerolog.Nop())
	assert.Error(t, err)
}

func TestSealer(t *testing.T) {
	s := newSealer(testSecret)
	now := time.Now()

	value, err := s.Seal(Session{Login: "octocat", Token: "gho_abc", Expiry: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.NotContains(t, value, "gho_abc")

	session, err := s.Open(value, now)
	require.NoError(t, err)
	assert.Equal(t, "octocat", session.Login)
	assert.Equal(t, "gho_abc", session.Token)

	t.Run("expired", func(t *testing.T) {
		_, err := s.Open(value, now.Add(2*time.Hour))
		assert.Error(t, err)
	})

	t.Run("other key", func(t *testing.T) {
		_, err := newSealer("another-secret-of-enough-length").Open(value, now)
		assert.Error(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		tampered := []byte(value)
		mid := len(tampered) / 2
		if tampered[mid] == 'A' {
			tampered[mid] = 'B'
		} else {
			tampered[mid] = 'A'
		}
		_, err := s.Open(string(tampered), now)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Open("not-a-session", now)
		assert.Error(t, err)
	})
}

func TestAuthenticate(t *testing.T) {
	m := newTestManager(t, nil, nil)

	t.Run("bearer token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/github/stats", nil)
		r.Header.Set("Authorization", "Bearer gho_token")

		viewer, err := m.Authenticate(r)
		require.NoError(t, err)
		assert.Equal(t, "gho_token", viewer.Token)
		assert.Empty(t, viewer.Login)
	})

	t.Run("malformed header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/github/stats", nil)
		r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")

		_, err := m.Authenticate(r)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("session cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, m.SetSession(rec, "octocat", "gho_cookie"))

		r := httptest.NewRequest(http.MethodGet, "/api/github/stats", nil)
		for _, c := range rec.Result().Cookies() {
			r.AddCookie(c)
		}

		viewer, err := m.Authenticate(r)
		require.NoError(t, err)
		assert.Equal(t, "octocat", viewer.Login)
		assert.Equal(t, "gho_cookie", viewer.Token)
	})

	t.Run("no credentials", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/github/stats", nil)
		_, err := m.Authenticate(r)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("forged cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/github/stats", nil)
		r.AddCookie(&http.Cookie{Name: "forknight_session", Value: "forged"})
		_, err := m.Authenticate(r)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestRequireViewer(t *testing.T) {
	m := newTestManager(t, nil, nil)
	handler := m.RequireViewer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := ViewerFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(viewer.Token))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/github/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/github/stats", nil)
	r.Header.Set("Authorization", "Bearer gho_token")
	handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gho_token", rec.Body.String())
}

func TestLoginFlow(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.FormValue("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"bad_verification_code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"gho_exchanged","token_type":"bearer","scope":"repo"}`))
	}))
	defer tokenServer.Close()

	endpoint := &oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/login/oauth/authorize",
		TokenURL: tokenServer.URL + "/login/oauth/access_token",
	}

	var resolvedToken string
	m := newTestManager(t, endpoint, func(ctx context.Context, token string) (string, error) {
		resolvedToken = token
		return "octocat", nil
	})

	// Login sets the state cookie and redirects to the consent page
	rec := httptest.NewRecorder()
	m.Login(rec, httptest.NewRequest(http.MethodGet, "/auth/github", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login/oauth/authorize", location.Path)
	assert.Equal(t, "client-id", location.Query().Get("client_id"))
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	var stateCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookieName {
			stateCookie = c
		}
	}
	require.NotNil(t, stateCookie)
	assert.Equal(t, state, stateCookie.Value)

	t.Run("state mismatch is rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=good-code&state=other", nil)
		r.AddCookie(stateCookie)
		rec := httptest.NewRecorder()
		m.Callback(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad code fails the exchange", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=bad-code&state="+state, nil)
		r.AddCookie(stateCookie)
		rec := httptest.NewRecorder()
		m.Callback(rec, r)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("successful callback issues a session", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=good-code&state="+state, nil)
		r.AddCookie(stateCookie)
		rec := httptest.NewRecorder()
		m.Callback(rec, r)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "http://localhost:5173/dashboard", rec.Header().Get("Location"))
		assert.Equal(t, "gho_exchanged", resolvedToken)

		next := httptest.NewRequest(http.MethodGet, "/api/github/stats", nil)
		for _, c := range rec.Result().Cookies() {
			if c.MaxAge >= 0 {
				next.AddCookie(c)
			}
		}
		viewer, err := m.Authenticate(next)
		require.NoError(t, err)
		assert.Equal(t, "octocat", viewer.Login)
		assert.Equal(t, "gho_exchanged", viewer.Token)
	})

	t.Run("resolver failure", func(t *testing.T) {
		failing := newTestManager(t, endpoint, func(ctx context.Context, token string) (string, error) {
			return "", errors.New("boom")
		})
		r := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=good-code&state="+state, nil)
		r.AddCookie(stateCookie)
		rec := httptest.NewRecorder()
		failing.Callback(rec, r)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("denied consent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.Callback(rec, httptest.NewRequest(http.MethodGet, "/auth/github/callback?error=access_denied", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogout(t *testing.T) {
	m := newTestManager(t, nil, nil)
	rec := httptest.NewRecorder()
	m.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "forknight_session", cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}
