package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/api"
	"github.com/loganlanou/myapp/internal/auth"
	"github.com/loganlanou/myapp/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	user api.User
	err  error
	gate chan struct{}
}

func (b *stubBackend) Me(ctx context.Context) (api.User, error) {
	if b.gate != nil {
		select {
		case <-b.gate:
		case <-ctx.Done():
			return api.User{}, ctx.Err()
		}
	}
	return b.user, b.err
}
func (b *stubBackend) Login(context.Context, api.Credentials) (api.User, error) {
	return b.user, b.err
}
func (b *stubBackend) Signup(context.Context, api.Credentials) (api.User, error) {
	return b.user, b.err
}
func (b *stubBackend) Logout(context.Context) error { return nil }

func newTestContext(method, path string, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "login form")
}

func TestRequireGuest_Loading(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/login")
	auth.SetStore(c, session.NewStore(&stubBackend{}))

	err := RequireGuest("http://localhost:8000")(okHandler)(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Loading...")
	assert.NotContains(t, rec.Body.String(), "login form")
	assert.Empty(t, rec.Header().Get(echo.HeaderLocation), "no navigation while loading")
}

func TestRequireGuest_Authenticated(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/login")
	store := session.NewStore(&stubBackend{user: api.User{Email: "a@b.com"}})
	require.NoError(t, store.Initialize(context.Background()))
	auth.SetStore(c, store)

	err := RequireGuest("")(okHandler)(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
}

func TestRequireGuest_Unauthenticated(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/signup")
	store := session.NewStore(&stubBackend{err: errors.New("401")})
	require.NoError(t, store.Initialize(context.Background()))
	auth.SetStore(c, store)

	err := RequireGuest("")(okHandler)(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "login form", rec.Body.String())
}

func TestRequireGuest_NoStore(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/login")

	err := RequireGuest("")(okHandler)(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
}

var backendToken = &http.Cookie{Name: api.AccessTokenCookie, Value: "token"}

func newManager(backend session.Backend) *session.Manager {
	return session.NewManager(func(*http.Request) (*session.Store, error) {
		return session.NewStore(backend), nil
	})
}

func TestLoadSession_WaitsForFastLookup(t *testing.T) {
	mgr := newManager(&stubBackend{user: api.User{Email: "a@b.com"}})
	defer mgr.Close()
	c, rec := newTestContext(http.MethodGet, "/", backendToken)

	var seen *auth.Context
	err := LoadSession(mgr, time.Second)(func(c echo.Context) error {
		seen = auth.GetAuthContext(c)
		return nil
	})(c)

	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.False(t, seen.IsLoading)
	assert.True(t, seen.IsAuthenticated)
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestLoadSession_GivesUpOnSlowLookup(t *testing.T) {
	backend := &stubBackend{gate: make(chan struct{})}
	defer close(backend.gate)
	mgr := newManager(backend)
	defer mgr.Close()
	c, _ := newTestContext(http.MethodGet, "/login", backendToken)

	var seen *auth.Context
	err := LoadSession(mgr, 10*time.Millisecond)(func(c echo.Context) error {
		seen = auth.GetAuthContext(c)
		return nil
	})(c)

	require.NoError(t, err)
	assert.True(t, seen.IsLoading)
}

func TestLoadSession_FactoryError(t *testing.T) {
	mgr := session.NewManager(func(*http.Request) (*session.Store, error) {
		return nil, errors.New("bad backend url")
	})
	c, _ := newTestContext(http.MethodGet, "/", backendToken)

	err := LoadSession(mgr, 0)(okHandler)(c)

	assert.Equal(t, echo.ErrInternalServerError, err)
}

func TestSecurityHeaders(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/")

	require.NoError(t, SecurityHeaders()(okHandler)(c))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestLoadSession_GuestWithoutCredentials(t *testing.T) {
	mgr := newManager(&stubBackend{user: api.User{Email: "a@b.com"}})
	defer mgr.Close()
	c, rec := newTestContext(http.MethodGet, "/robots.txt")

	var seen *auth.Context
	err := LoadSession(mgr, time.Second)(func(c echo.Context) error {
		seen = auth.GetAuthContext(c)
		return nil
	})(c)

	require.NoError(t, err)
	assert.False(t, seen.IsLoading)
	assert.False(t, seen.IsAuthenticated)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 0, mgr.Len())
}
