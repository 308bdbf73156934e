package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/session"
)

// StoreKey is the echo context key holding the browser's *session.Store
const StoreKey = "session_store"

// Context holds authentication data to be passed to templates
type Context struct {
	IsLoading       bool
	IsAuthenticated bool
	User            *UserData
}

// UserData contains user information for templates
type UserData struct {
	Email string
}

// FromSession converts a session snapshot into a template context
func FromSession(s session.Session) *Context {
	ctx := &Context{IsLoading: s.IsLoading()}

	if user, ok := s.User(); ok {
		ctx.IsAuthenticated = true
		ctx.User = &UserData{Email: user.Email}
	}

	return ctx
}

// GetAuthContext returns the auth context for the request's session.
// Requests without a store (e.g. a handler mounted outside LoadSession) read as loading.
func GetAuthContext(c echo.Context) *Context {
	store, ok := GetStore(c)
	if !ok {
		return FromSession(session.Session{})
	}
	return FromSession(store.Snapshot())
}
