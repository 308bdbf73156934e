package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/auth"
	"github.com/loganlanou/myapp/views/layout"
)

// LoadingRefreshSeconds is how often the loading page re-polls
const LoadingRefreshSeconds = 1

// RequireGuest gates the login and signup pages. While the session is
// resolving it renders a placeholder and does not navigate; a logged in
// user is redirected home; everyone else gets the page.
func RequireGuest(siteURL string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store, err := auth.MustStore(c)
			if err != nil {
				return err
			}

			snap := store.Snapshot()
			switch {
			case snap.IsLoading():
				c.Response().Header().Set("Cache-Control", "no-store")
				c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
				meta := layout.NewPageMeta(c, siteURL)
				return layout.Loading(meta, LoadingRefreshSeconds).Render(c.Request().Context(), c.Response().Writer)
			case snap.IsAuthenticated():
				return c.Redirect(http.StatusFound, "/")
			default:
				return next(c)
			}
		}
	}
}
