package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/api"
	"github.com/loganlanou/myapp/internal/handlers"
	"github.com/loganlanou/myapp/internal/jobs"
	"github.com/loganlanou/myapp/internal/metrics"
	"github.com/loganlanou/myapp/internal/middleware"
	"github.com/loganlanou/myapp/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Service struct {
	config      *Config
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	sessions    *session.Manager
	sweeper     *jobs.SessionSweeper
	homeHandler *handlers.HomeHandler
	authHandler *handlers.AuthHandler
}

func New(config *Config) *Service {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	s := &Service{
		config:      config,
		registry:    registry,
		metrics:     m,
		homeHandler: handlers.NewHomeHandler(config.BaseURL),
		authHandler: handlers.NewAuthHandler(config.BaseURL),
	}

	s.sessions = session.NewManager(s.newStore,
		session.WithCookieName(config.Session.CookieName),
		session.WithSecureCookie(config.IsProduction()),
		session.WithManagerMetrics(m),
		session.WithMaxSessions(config.Session.MaxActive),
	)
	s.sweeper = jobs.NewSessionSweeper(s.sessions, config.Session.IdleTTL, jobs.DefaultSweepInterval)

	return s
}

// newStore builds the session store for a browser seen for the first time
func (s *Service) newStore(r *http.Request) (*session.Store, error) {
	client, err := api.NewClient(s.config.Backend.URL,
		api.WithTimeout(s.config.Backend.Timeout),
		api.WithMetrics(s.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	client.SeedCookies(r.Cookies())

	return session.NewStore(client,
		session.WithLogoutPolicy(s.config.Session.LogoutPolicy),
		session.WithInitTimeout(s.config.Backend.Timeout),
	), nil
}

// Start launches background jobs
func (s *Service) Start(ctx context.Context) {
	s.sweeper.Start(ctx)
}

// Stop stops background jobs and drops all browser sessions
func (s *Service) Stop() {
	s.sweeper.Stop()
	s.sessions.Close()
}

func (s *Service) RegisterRoutes(e *echo.Echo) {
	// Static files - no session
	e.Static("/public", "public")

	e.GET("/health", s.handleHealth)

	if s.config.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	// Backend paths are served by the backend itself
	if s.config.Backend.Proxy {
		proxy, err := backendProxy(s.config.Backend.URL)
		if err != nil {
			// LoadConfig validated the URL already
			panic(err)
		}
		for _, prefix := range proxiedPrefixes {
			e.Any(prefix+"/*", proxy)
		}
		slog.Info("proxying backend paths", "target", s.config.Backend.URL, "prefixes", proxiedPrefixes)
	}

	withSession := middleware.LoadSession(s.sessions, s.config.Session.InitialWait)
	guestOnly := middleware.RequireGuest(s.config.BaseURL)

	// Home page - available with or without a session
	e.GET("/", s.homeHandler.HandleHome, withSession)

	// Auth pages - logged in users are sent home
	e.GET("/login", s.authHandler.HandleLoginPage, withSession, guestOnly)
	e.GET("/signup", s.authHandler.HandleSignupPage, withSession, guestOnly)

	// Auth actions
	e.POST("/login", s.authHandler.HandleLogin, withSession)
	e.POST("/signup", s.authHandler.HandleSignup, withSession)
	e.POST("/logout", s.authHandler.HandleLogout, withSession)

	// Everything else renders inside the shell
	e.RouteNotFound("/*", s.homeHandler.HandleNotFound, withSession)
}

func (s *Service) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}
