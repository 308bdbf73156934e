package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/api"
	"github.com/loganlanou/myapp/internal/api/apitest"
	"github.com/loganlanou/myapp/internal/auth"
	"github.com/loganlanou/myapp/internal/session"
)

// NewTestContext creates a new Echo context for testing.
// A non-nil form is sent as an urlencoded body.
func NewTestContext(method, target string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	return c, rec
}

// NewTestStore creates a store talking to backend and resolves it.
// token, when set, is the backend session the store starts with.
func NewTestStore(t *testing.T, backend *apitest.Backend, token string, opts ...session.StoreOption) *session.Store {
	t.Helper()

	client, err := api.NewClient(backend.URL())
	if err != nil {
		t.Fatalf("failed to create api client: %v", err)
	}
	if token != "" {
		client.SeedCookies([]*http.Cookie{{Name: api.AccessTokenCookie, Value: token}})
	}

	store := session.NewStore(client, opts...)
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	return store
}

// SetTestStore attaches store to the context the way LoadSession does
func SetTestStore(c echo.Context, store *session.Store) {
	auth.SetStore(c, store)
}
