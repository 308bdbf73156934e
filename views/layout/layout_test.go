package layout

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestMain_LoggedOutShowsLoginLink(t *testing.T) {
	chrome := Chrome{
		Meta:     PageMeta{Title: "MyApp"},
		Auth:     &auth.Context{},
		LoginURL: "/login?ref=%2Fdashboard%2Fx",
	}

	html := render(t, Main(chrome, templ.Raw("<p>body</p>")))

	assert.Contains(t, html, `href="/login?ref=%2Fdashboard%2Fx"`)
	assert.Contains(t, html, "Log in")
	assert.NotContains(t, html, `action="/logout"`)
	assert.Contains(t, html, "<p>body</p>")
}

func TestMain_LoggedInShowsUserMenu(t *testing.T) {
	chrome := Chrome{
		Meta: PageMeta{Title: "MyApp"},
		Auth: &auth.Context{IsAuthenticated: true, User: &auth.UserData{Email: "a@b.com"}},
	}

	html := render(t, Main(chrome, templ.Raw("<p>body</p>")))

	assert.Contains(t, html, "a@b.com")
	assert.Contains(t, html, `action="/logout"`)
	assert.Contains(t, html, ">A</summary>")
	assert.Contains(t, html, "<p>body</p>")
}

func TestMain_EscapesEmail(t *testing.T) {
	chrome := Chrome{
		Auth: &auth.Context{IsAuthenticated: true, User: &auth.UserData{Email: "<script>@b.com"}},
	}

	html := render(t, Main(chrome, templ.Raw("")))

	assert.NotContains(t, html, "<script>@")
	assert.Contains(t, html, "&lt;script&gt;@b.com")
}

func TestLoading_RefreshesAndHasNoHeader(t *testing.T) {
	html := render(t, Loading(PageMeta{Title: "MyApp"}, 1))

	assert.Contains(t, html, "Loading...")
	assert.Contains(t, html, `http-equiv="refresh" content="1"`)
	assert.NotContains(t, html, "<header")
}

func TestAuth_WrapsBody(t *testing.T) {
	html := render(t, Auth(PageMeta{Title: "Log in - MyApp"}, templ.Raw("<form></form>")))

	assert.Contains(t, html, "<title>Log in - MyApp</title>")
	assert.Contains(t, html, "<form></form>")
}

func TestNewPageMeta(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/signup", nil), httptest.NewRecorder())

	meta := NewPageMeta(c, "https://myapp.example.com/").WithTitle("Sign up")

	assert.Equal(t, "Sign up - MyApp", meta.Title)
	assert.Equal(t, "https://myapp.example.com/signup", meta.CanonicalURL)
}

func TestBuildAbsoluteURL(t *testing.T) {
	assert.Equal(t, "http://x.test", BuildAbsoluteURL("http://x.test", ""))
	assert.Equal(t, "http://x.test/a", BuildAbsoluteURL("http://x.test/", "a"))
	assert.Equal(t, "https://other.test/a", BuildAbsoluteURL("http://x.test", "https://other.test/a"))
}

func TestMain_CanonicalAndDescription(t *testing.T) {
	chrome := Chrome{
		Meta: PageMeta{Title: "MyApp", Description: "MyApp web client", CanonicalURL: "https://myapp.example.com/"},
		Auth: &auth.Context{},
	}

	html := render(t, Main(chrome, templ.Raw("")))

	assert.Contains(t, html, `<link rel="canonical" href="https://myapp.example.com/">`)
	assert.Contains(t, html, `<meta name="description" content="MyApp web client">`)
	assert.NotContains(t, html, `http-equiv="refresh"`)
}

func TestChrome_IsLoggedIn(t *testing.T) {
	assert.False(t, Chrome{}.IsLoggedIn())
	assert.False(t, Chrome{Auth: &auth.Context{IsAuthenticated: true}}.IsLoggedIn())

	chrome := Chrome{Auth: &auth.Context{IsAuthenticated: true, User: &auth.UserData{Email: "a@b.com"}}}
	assert.True(t, chrome.IsLoggedIn())
	assert.Equal(t, "a@b.com", chrome.Email())
}
