package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/auth"
	"github.com/loganlanou/myapp/internal/session"
)

// LoadSession attaches the browser's session store to the Echo context.
// A request that creates a new session waits up to wait for the first
// lookup so that most first visits render already resolved.
func LoadSession(mgr *session.Manager, wait time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			store, created, err := mgr.Get(c)
			if err != nil {
				slog.Error("failed to load session", "error", err, "path", c.Request().URL.Path)
				return echo.ErrInternalServerError
			}

			if wait > 0 {
				select {
				case <-store.Resolved():
				default:
					ctx, cancel := context.WithTimeout(c.Request().Context(), wait)
					_ = store.Wait(ctx)
					cancel()
				}
			}

			snap := store.Snapshot()
			slog.Debug("session loaded",
				"path", c.Request().URL.Path,
				"created", created,
				"loading", snap.IsLoading(),
				"authenticated", snap.IsAuthenticated(),
			)

			auth.SetStore(c, store)
			return next(c)
		}
	}
}
