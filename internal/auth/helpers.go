package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/session"
)

// SetStore attaches the browser's store to the request
func SetStore(c echo.Context, store *session.Store) {
	c.Set(StoreKey, store)
}

// GetStore retrieves the browser's store from context
func GetStore(c echo.Context) (*session.Store, bool) {
	store, ok := c.Get(StoreKey).(*session.Store)
	return store, ok && store != nil
}

// MustStore returns the store or a 500 error when the session middleware did not run
func MustStore(c echo.Context) (*session.Store, error) {
	store, ok := GetStore(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session not loaded")
	}
	return store, nil
}

// IsAuthenticated checks if the current request is authenticated
func IsAuthenticated(c echo.Context) bool {
	store, ok := GetStore(c)
	return ok && store.Snapshot().IsAuthenticated()
}
