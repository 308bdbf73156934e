package service

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/loganlanou/myapp/internal/session"
)

type Config struct {
	Environment string
	Port        string
	BaseURL     string

	Backend struct {
		URL     string
		Timeout time.Duration
		Proxy   bool
	}

	Session struct {
		CookieName   string
		IdleTTL      time.Duration
		InitialWait  time.Duration
		LogoutPolicy session.LogoutPolicy
		MaxActive    int
	}

	MetricsEnabled bool
}

func LoadConfig() (*Config, error) {
	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8000"),
	}
	config.BaseURL = getEnv("BASE_URL", "http://localhost:"+config.Port)

	var err error

	// Backend
	config.Backend.URL = getEnv("BACKEND_URL", "http://localhost:8080")
	if err := validateBackendURL(config.Backend.URL); err != nil {
		return nil, err
	}
	if config.Backend.Timeout, err = getDuration("BACKEND_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.Backend.Proxy, err = getBool("PROXY_BACKEND", true); err != nil {
		return nil, err
	}

	// Session
	config.Session.CookieName = getEnv("SESSION_COOKIE", session.DefaultCookieName)
	if config.Session.IdleTTL, err = getDuration("SESSION_IDLE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if config.Session.InitialWait, err = getDuration("SESSION_INITIAL_WAIT", 250*time.Millisecond); err != nil {
		return nil, err
	}
	if config.Session.LogoutPolicy, err = session.ParseLogoutPolicy(getEnv("LOGOUT_POLICY", "clear-always")); err != nil {
		return nil, fmt.Errorf("invalid LOGOUT_POLICY: %w", err)
	}
	if config.Session.MaxActive, err = getInt("SESSION_MAX_ACTIVE", session.DefaultMaxSessions); err != nil {
		return nil, err
	}

	// Metrics
	if config.MetricsEnabled, err = getBool("METRICS_ENABLED", true); err != nil {
		return nil, err
	}

	return config, nil
}

// IsProduction reports whether cookies should be marked Secure
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func validateBackendURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid BACKEND_URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid BACKEND_URL %q: must be an absolute URL", raw)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q is not a positive integer", key, value)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
