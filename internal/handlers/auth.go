package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/api"
	"github.com/loganlanou/myapp/internal/auth"
	authviews "github.com/loganlanou/myapp/views/auth"
	"github.com/loganlanou/myapp/views/layout"
)

const (
	msgBadCredentials = "Invalid email or password."
	msgUnavailable    = "We couldn't reach the server. Please try again."
)

// AuthHandler handles the login, signup and logout routes
type AuthHandler struct {
	siteURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(siteURL string) *AuthHandler {
	return &AuthHandler{siteURL: siteURL}
}

// HandleLoginPage renders the login form
func (h *AuthHandler) HandleLoginPage(c echo.Context) error {
	data := authviews.FormData{Ref: c.QueryParam(RefParam)}
	return Render(c, h.page(c, "Log in", authviews.LoginForm(data)))
}

// HandleSignupPage renders the signup form
func (h *AuthHandler) HandleSignupPage(c echo.Context) error {
	data := authviews.FormData{Ref: c.QueryParam(RefParam)}
	return Render(c, h.page(c, "Sign up", authviews.SignupForm(data)))
}

// HandleLogin submits the login form
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	store, err := auth.MustStore(c)
	if err != nil {
		return err
	}

	data := formData(c)
	if err := store.Login(backendContext(c), data.Email, c.FormValue("password")); err != nil {
		status, msg := describeFailure(err)
		slog.Info("login failed", "status", status, "error", err)
		data.Error = msg
		return RenderStatus(c, status, h.page(c, "Log in", authviews.LoginForm(data)))
	}

	slog.Info("user logged in")
	return c.Redirect(http.StatusSeeOther, afterLogin(data.Ref))
}

// HandleSignup submits the signup form
func (h *AuthHandler) HandleSignup(c echo.Context) error {
	store, err := auth.MustStore(c)
	if err != nil {
		return err
	}

	data := formData(c)
	if err := store.Signup(backendContext(c), data.Email, c.FormValue("password")); err != nil {
		status, msg := describeFailure(err)
		slog.Info("signup failed", "status", status, "error", err)
		data.Error = msg
		return RenderStatus(c, status, h.page(c, "Sign up", authviews.SignupForm(data)))
	}

	slog.Info("user signed up")
	return c.Redirect(http.StatusSeeOther, afterLogin(data.Ref))
}

// HandleLogout logs the user out and sends them to the login page.
// A failed backend call is logged; the store's logout policy decides whether
// the local session is still cleared.
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	store, err := auth.MustStore(c)
	if err != nil {
		return err
	}

	if err := store.Logout(backendContext(c)); err != nil {
		slog.Warn("backend logout failed", "error", err,
			"still_authenticated", store.Snapshot().IsAuthenticated())
	}

	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h *AuthHandler) page(c echo.Context, title string, form templ.Component) templ.Component {
	meta := layout.NewPageMeta(c, h.siteURL).WithTitle(title)
	return layout.Auth(meta, form)
}

// backendContext passes the token cookies the backend sets on to the
// browser, so its own proxied /api calls carry the same session
func backendContext(c echo.Context) context.Context {
	return api.WithCookieSink(c.Request().Context(), c.SetCookie)
}

func formData(c echo.Context) authviews.FormData {
	return authviews.FormData{
		Email: strings.TrimSpace(c.FormValue("email")),
		Ref:   c.FormValue(RefParam),
	}
}

// describeFailure maps a store error to a status and a user-facing message.
// Backend rejections (4xx) show the backend's reason when it gave one.
func describeFailure(err error) (int, string) {
	if !api.IsRejected(err) {
		return http.StatusBadGateway, msgUnavailable
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && !errors.Is(err, api.ErrUnauthorized) {
		return http.StatusUnprocessableEntity, apiErr.Message
	}
	return http.StatusUnprocessableEntity, msgBadCredentials
}
