package service

import (
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/api/apitest"
	"github.com/loganlanou/myapp/internal/session"
)

// setupTestService creates a service pointed at an in-memory backend
func setupTestService(t *testing.T) (*Service, *apitest.Backend) {
	t.Helper()

	backend := apitest.NewBackend(t)

	config := &Config{
		Environment:    "test",
		Port:           "8080",
		BaseURL:        "http://localhost:8080",
		MetricsEnabled: true,
	}
	config.Backend.URL = backend.URL()
	config.Backend.Timeout = 5 * time.Second
	config.Backend.Proxy = true
	config.Session.CookieName = session.DefaultCookieName
	config.Session.IdleTTL = time.Hour
	// Long enough that a local backend always answers before the first render
	config.Session.InitialWait = 2 * time.Second
	config.Session.LogoutPolicy = session.LogoutClearAlways

	svc := New(config)
	t.Cleanup(svc.sessions.Close)

	return svc, backend
}

// setupTestEcho creates an Echo instance with routes registered
func setupTestEcho(t *testing.T) (*echo.Echo, *Service, *apitest.Backend) {
	t.Helper()

	e := echo.New()
	svc, backend := setupTestService(t)
	svc.RegisterRoutes(e)

	return e, svc, backend
}
