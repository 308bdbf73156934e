// Package apitest provides an in-memory stand-in for the auth backend,
// served over httptest, for use in tests of packages that talk to it.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/google/uuid"
	"github.com/loganlanou/myapp/internal/api"
)

// Backend mimics the /api/auth endpoints with cookie-based sessions
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    map[string]string // email -> password
	tokens   map[string]string // access token -> email
	calls    map[string]int
	failNext map[string]int // path -> status to answer once
	block    map[string]chan struct{}
}

// NewBackend starts a backend and registers cleanup with t
func NewBackend(t interface{ Cleanup(func()) }) *Backend {
	b := &Backend{
		users:    make(map[string]string),
		tokens:   make(map[string]string),
		calls:    make(map[string]int),
		failNext: make(map[string]int),
		block:    make(map[string]chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", b.handleMe)
	mux.HandleFunc("POST /api/auth/login", b.handleLogin)
	mux.HandleFunc("POST /api/auth/signup", b.handleSignup)
	mux.HandleFunc("POST /api/auth/logout", b.handleLogout)

	b.Server = httptest.NewServer(b.intercept(mux))
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the backend base URL
func (b *Backend) URL() string {
	return b.Server.URL
}

// AddUser registers an account
func (b *Backend) AddUser(email, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[email] = password
}

// IssueToken returns an access token already logged in as email
func (b *Backend) IssueToken(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	token := uuid.NewString()
	b.tokens[token] = email
	return token
}

// FailNext makes the next request to path answer with status
func (b *Backend) FailNext(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[path] = status
}

// Block holds requests to path until the returned func is called
func (b *Backend) Block(path string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.block[path] = ch
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.block, path)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many requests path received
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.URL.Path]++
		status, fail := b.failNext[r.URL.Path]
		delete(b.failNext, r.URL.Path)
		gate := b.block[r.URL.Path]
		b.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}

		if fail {
			writeJSON(w, status, api.AuthResponse{Message: http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	email, ok := b.sessionEmail(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, api.AuthResponse{Message: "Unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, api.AuthResponse{Message: "Authenticated", Email: email})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, api.AuthResponse{Message: "Malformed request"})
		return
	}

	b.mu.Lock()
	password, ok := b.users[creds.Email]
	b.mu.Unlock()
	if !ok || password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, api.AuthResponse{Message: "Bad credentials"})
		return
	}

	b.startSession(w, creds.Email)
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, api.AuthResponse{Message: "Malformed request"})
		return
	}

	b.mu.Lock()
	_, exists := b.users[creds.Email]
	if !exists {
		b.users[creds.Email] = creds.Password
	}
	b.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusConflict, api.AuthResponse{Message: "Email already registered"})
		return
	}

	b.startSession(w, creds.Email)
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	email, ok := b.sessionEmail(r)
	if !ok {
		writeJSON(w, http.StatusForbidden, api.AuthResponse{Message: "Forbidden"})
		return
	}

	if ck, err := r.Cookie(api.AccessTokenCookie); err == nil {
		b.mu.Lock()
		delete(b.tokens, ck.Value)
		b.mu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{Name: api.AccessTokenCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, api.AuthResponse{Message: "Logged out successfully", Email: email})
}

func (b *Backend) startSession(w http.ResponseWriter, email string) {
	token := b.IssueToken(email)
	http.SetCookie(w, &http.Cookie{Name: api.AccessTokenCookie, Value: token, Path: "/", MaxAge: 900, HttpOnly: true})
	writeJSON(w, http.StatusOK, api.AuthResponse{Message: "Success", Email: email})
}

func (b *Backend) sessionEmail(r *http.Request) (string, bool) {
	ck, err := r.Cookie(api.AccessTokenCookie)
	if err != nil {
		return "", false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	email, ok := b.tokens[ck.Value]
	return email, ok
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
