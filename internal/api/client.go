package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/loganlanou/myapp/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout = 10 * time.Second
	tracerName     = "github.com/loganlanou/myapp/internal/api"

	// Backend cookie names forwarded from the browser
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// Client talks to the backend auth endpoints on behalf of one browser.
// Each Client has its own cookie jar holding that browser's backend tokens.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithTransport replaces the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithMetrics records every call in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SeedCookies copies the backend token cookies from a browser request into the jar
func (c *Client) SeedCookies(cookies []*http.Cookie) {
	var seeded []*http.Cookie
	for name, value := range TokensFrom(cookies) {
		seeded = append(seeded, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	if len(seeded) > 0 {
		c.httpClient.Jar.SetCookies(c.baseURL, seeded)
	}
}

// Me fetches the user the backend considers logged in
func (c *Client) Me(ctx context.Context) (User, error) {
	var resp AuthResponse
	if err := c.call(ctx, "me", http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return User{}, err
	}
	return userFrom(resp)
}

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, creds Credentials) (User, error) {
	var resp AuthResponse
	if err := c.call(ctx, "login", http.MethodPost, "/api/auth/login", creds, &resp); err != nil {
		return User{}, err
	}
	return userFrom(resp)
}

// Signup registers a new account and logs it in
func (c *Client) Signup(ctx context.Context, creds Credentials) (User, error) {
	var resp AuthResponse
	if err := c.call(ctx, "signup", http.MethodPost, "/api/auth/signup", creds, &resp); err != nil {
		return User{}, err
	}
	return userFrom(resp)
}

// Logout ends the backend session
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, "logout", http.MethodPost, "/api/auth/logout", nil, nil)
}

func userFrom(resp AuthResponse) (User, error) {
	if resp.Email == "" {
		return User{}, errors.New("api: response has no email")
	}
	return User{Email: resp.Email}, nil
}

func (c *Client) call(ctx context.Context, op, method, path string, in, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "api."+op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	)
	start := time.Now()
	defer func() {
		c.metrics.ObserveBackendCall(op, outcomeOf(err), time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	forwardTokenCookies(ctx, resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body AuthResponse
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		apiErr.Message = body.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrUnauthorized):
		return metrics.OutcomeUnauthorized
	default:
		return metrics.OutcomeError
	}
}

// IsRejected reports whether err is a 4xx answer from the backend, as opposed
// to a transport failure or a backend fault.
func IsRejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}
