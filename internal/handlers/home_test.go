package handlers

import (
	"net/http"
	"testing"

	"github.com/loganlanou/myapp/internal/api/apitest"
	"github.com/loganlanou/myapp/views/home"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHome_Authenticated(t *testing.T) {
	backend := apitest.NewBackend(t)
	store := NewTestStore(t, backend, backend.IssueToken("a@b.com"))

	h := NewHomeHandler("http://localhost:8000")
	c, rec := NewTestContext(http.MethodGet, "/", nil)
	SetTestStore(c, store)

	require.NoError(t, h.HandleHome(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "You're logged in as")
	assert.Contains(t, body, "a@b.com")
	assert.Contains(t, body, `action="/logout"`)
	assert.NotContains(t, body, home.Invitation)
}

func TestHandleHome_Unauthenticated(t *testing.T) {
	backend := apitest.NewBackend(t)
	store := NewTestStore(t, backend, "")

	h := NewHomeHandler("http://localhost:8000")
	c, rec := NewTestContext(http.MethodGet, "/", nil)
	SetTestStore(c, store)

	require.NoError(t, h.HandleHome(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, home.Invitation)
	assert.NotContains(t, body, "@")
	assert.Contains(t, body, `href="/login?ref=%2F"`)
}

func TestHandleNotFound_LoginLinkReturnsHere(t *testing.T) {
	backend := apitest.NewBackend(t)
	store := NewTestStore(t, backend, "")

	h := NewHomeHandler("")
	c, rec := NewTestContext(http.MethodGet, "/dashboard/x", nil)
	SetTestStore(c, store)

	require.NoError(t, h.HandleNotFound(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/login?ref=%2Fdashboard%2Fx"`)
}
