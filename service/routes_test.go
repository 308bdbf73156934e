package service

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/api"
	"github.com/loganlanou/myapp/views/home"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// browser replays the cookies the frontend sets, like a real browser would
type browser struct {
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

func newBrowser(e *echo.Echo, cookies ...*http.Cookie) *browser {
	b := &browser{e: e, cookies: make(map[string]*http.Cookie)}
	for _, ck := range cookies {
		b.cookies[ck.Name] = ck
	}
	return b
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	for _, ck := range b.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, target, nil)
}

func TestTier1_PublicRoutes(t *testing.T) {
	e, _, _ := setupTestEcho(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"Home page", "GET", "/", http.StatusOK},
		{"Health check", "GET", "/health", http.StatusOK},
		{"Metrics", "GET", "/metrics", http.StatusOK},
		{"Login page", "GET", "/login", http.StatusOK},
		{"Signup page", "GET", "/signup", http.StatusOK},
		{"Unknown page", "GET", "/dashboard/x", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code,
				"Route %s %s should return %d, got %d",
				tt.method, tt.path, tt.wantStatus, rec.Code)
		})
	}
}

func TestHome_Unauthenticated(t *testing.T) {
	e, _, _ := setupTestEcho(t)

	rec := newBrowser(e).get("/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), home.Invitation)
}

func TestHome_AuthenticatedViaBackendCookie(t *testing.T) {
	e, _, backend := setupTestEcho(t)
	token := backend.IssueToken("a@b.com")

	rec := newBrowser(e, &http.Cookie{Name: api.AccessTokenCookie, Value: token}).get("/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a@b.com")
	assert.NotContains(t, rec.Body.String(), home.Invitation)
}

func TestLoginPage_RedirectsWhenAuthenticated(t *testing.T) {
	e, _, backend := setupTestEcho(t)
	token := backend.IssueToken("a@b.com")

	rec := newBrowser(e, &http.Cookie{Name: api.AccessTokenCookie, Value: token}).get("/login")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
}

func TestLoginPage_LoadingWhileLookupPending(t *testing.T) {
	e, svc, backend := setupTestEcho(t)
	svc.config.Session.InitialWait = 0
	release := backend.Block("/api/auth/me")
	defer release()

	// Routes captured the old wait; rebuild them
	e = echo.New()
	svc.RegisterRoutes(e)

	rec := newBrowser(e, &http.Cookie{Name: api.AccessTokenCookie, Value: "pending"}).get("/login")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Loading...")
	assert.Empty(t, rec.Header().Get(echo.HeaderLocation))
}

func TestFullLoginFlow(t *testing.T) {
	e, _, backend := setupTestEcho(t)
	backend.AddUser("a@b.com", "pw")
	b := newBrowser(e)

	// Logged out visitor on some page follows the login link
	rec := b.get("/dashboard/x")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/login?ref=%2Fdashboard%2Fx"`)

	rec = b.get("/login?ref=%2Fdashboard%2Fx")
	require.Equal(t, http.StatusOK, rec.Code)

	// Submits the form
	rec = b.do(http.MethodPost, "/login", url.Values{
		"email":    {"a@b.com"},
		"password": {"pw"},
		"ref":      {"/dashboard/x"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/x", rec.Header().Get(echo.HeaderLocation))

	// Now the header and home page know who they are
	rec = b.get("/")
	assert.Contains(t, rec.Body.String(), "You're logged in as")
	assert.Contains(t, rec.Body.String(), "a@b.com")
	assert.NotContains(t, rec.Body.String(), home.Invitation)

	rec = b.get("/login")
	assert.Equal(t, http.StatusFound, rec.Code)

	// Logging out lands on the login page, which now renders
	rec = b.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))

	rec = b.get("/login")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = b.get("/")
	assert.Contains(t, rec.Body.String(), home.Invitation)
}

func TestSignupFlow(t *testing.T) {
	e, _, _ := setupTestEcho(t)
	b := newBrowser(e)

	rec := b.do(http.MethodPost, "/signup", url.Values{
		"email":    {"new@b.com"},
		"password": {"pw"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	rec = b.get("/")
	assert.Contains(t, rec.Body.String(), "new@b.com")
}

func TestSessionsAreIsolatedPerBrowser(t *testing.T) {
	e, _, backend := setupTestEcho(t)
	backend.AddUser("a@b.com", "pw")
	alice, bob := newBrowser(e), newBrowser(e)

	alice.get("/")
	bob.get("/")
	alice.do(http.MethodPost, "/login", url.Values{"email": {"a@b.com"}, "password": {"pw"}})

	assert.Contains(t, alice.get("/").Body.String(), "a@b.com")
	assert.NotContains(t, bob.get("/").Body.String(), "a@b.com")
}

func TestOneLookupPerBrowser(t *testing.T) {
	e, _, backend := setupTestEcho(t)
	b := newBrowser(e, &http.Cookie{Name: api.AccessTokenCookie, Value: backend.IssueToken("a@b.com")})

	for i := 0; i < 3; i++ {
		b.get("/")
	}

	assert.Equal(t, 1, backend.Calls("/api/auth/me"))
}

func TestBackendProxy(t *testing.T) {
	e, _, backend := setupTestEcho(t)
	token := backend.IssueToken("a@b.com")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: api.AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body api.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a@b.com", body.Email)
}

func TestBackendProxy_Disabled(t *testing.T) {
	svc, _ := setupTestService(t)
	svc.config.Backend.Proxy = false
	e := echo.New()
	svc.RegisterRoutes(e)

	rec := newBrowser(e).get("/api/auth/me")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	e, _, backend := setupTestEcho(t)
	b := newBrowser(e, &http.Cookie{Name: api.AccessTokenCookie, Value: backend.IssueToken("a@b.com")})
	b.get("/")

	rec := b.get("/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 1.0, body["sessions"])
}

func TestMetricsExposeBackendCalls(t *testing.T) {
	e, _, _ := setupTestEcho(t)
	newBrowser(e, &http.Cookie{Name: api.AccessTokenCookie, Value: "expired"}).get("/")

	rec := newBrowser(e).get("/metrics")

	assert.Contains(t, rec.Body.String(), `myapp_backend_requests_total{operation="me",outcome="unauthorized"}`)
	assert.Contains(t, rec.Body.String(), "myapp_browser_sessions_active")
}

func TestFormLogin_BackendCookiesReachBrowser(t *testing.T) {
	e, _, backend := setupTestEcho(t)
	backend.AddUser("a@b.com", "pw")
	b := newBrowser(e)

	rec := b.do(http.MethodPost, "/login", url.Values{"email": {"a@b.com"}, "password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Contains(t, b.cookies, api.AccessTokenCookie)

	// The browser can now talk to the backend directly through the proxy
	rec = b.get("/api/auth/me")
	require.Equal(t, http.StatusOK, rec.Code)
	var body api.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a@b.com", body.Email)

	rec = b.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, b.cookies, api.AccessTokenCookie)
	assert.Equal(t, http.StatusUnauthorized, b.get("/api/auth/me").Code)
}

func TestProxiedLogout_NoticedOnReload(t *testing.T) {
	e, _, backend := setupTestEcho(t)
	b := newBrowser(e, &http.Cookie{Name: api.AccessTokenCookie, Value: backend.IssueToken("a@b.com")})

	rec := b.get("/")
	require.Contains(t, rec.Body.String(), "a@b.com")

	// Logged out by the backend directly, bypassing the frontend's own logout
	rec = b.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, b.cookies, api.AccessTokenCookie)

	rec = b.get("/")
	assert.Contains(t, rec.Body.String(), home.Invitation)
	assert.NotContains(t, rec.Body.String(), "a@b.com")
	assert.Equal(t, 2, backend.Calls("/api/auth/me"))
}

func TestCookielessRequests_CreateNoSessions(t *testing.T) {
	e, svc, backend := setupTestEcho(t)

	for i := 0; i < 200; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
	}

	assert.Equal(t, 0, svc.sessions.Len())
	assert.Equal(t, 0, backend.Calls("/api/auth/me"))
}

func TestServiceStartStop(t *testing.T) {
	svc, _ := setupTestService(t)

	svc.Start(t.Context())
	time.Sleep(time.Millisecond)

	assert.NotPanics(t, svc.Stop)
}
