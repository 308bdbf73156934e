package handlers

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/auth"
	"github.com/loganlanou/myapp/views/home"
	"github.com/loganlanou/myapp/views/layout"
)

// HomeHandler serves the home page, available with or without a session
type HomeHandler struct {
	siteURL string
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(siteURL string) *HomeHandler {
	return &HomeHandler{siteURL: siteURL}
}

// HandleHome renders the greeting inside the shell layout
func (h *HomeHandler) HandleHome(c echo.Context) error {
	ac := auth.GetAuthContext(c)
	return Render(c, Shell(c, h.siteURL, "", home.Page(ac)))
}

// Shell wraps body in the main layout for the current request
func Shell(c echo.Context, siteURL, title string, body templ.Component) templ.Component {
	chrome := layout.Chrome{
		Meta:     layout.NewPageMeta(c, siteURL).WithTitle(title),
		Auth:     auth.GetAuthContext(c),
		LoginURL: LoginURL(CurrentPath(c.Request().URL)),
	}
	return layout.Main(chrome, body)
}

// HandleNotFound renders unknown paths inside the shell, so the header
// (and its login link back to this path) is still available
func (h *HomeHandler) HandleNotFound(c echo.Context) error {
	return RenderStatus(c, http.StatusNotFound, Shell(c, h.siteURL, "Not found", home.NotFound(c.Request().URL.Path)))
}
