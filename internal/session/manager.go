package session

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/loganlanou/myapp/internal/api"
	"github.com/loganlanou/myapp/internal/metrics"
)

const (
	// DefaultCookieName identifies the browser session
	DefaultCookieName = "myapp_sid"
	// DefaultMaxSessions bounds how many browser sessions are held at once
	DefaultMaxSessions = 10000

	cookieMaxAge = 86400 * 7 // 7 days
)

// Factory builds the store for a new browser session. The request is the
// browser's first one, so its cookies can be forwarded to the backend.
type Factory func(r *http.Request) (*Store, error)

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Manager keeps one Store per browser, keyed by an opaque cookie
type Manager struct {
	factory     Factory
	cookieName  string
	secure      bool
	maxSessions int
	metrics     *metrics.Metrics
	now         func() time.Time
	guest       *Store

	mu     sync.Mutex
	stores map[string]*entry
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithCookieName overrides the browser session cookie name
func WithCookieName(name string) ManagerOption {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithSecureCookie marks the session cookie Secure
func WithSecureCookie(secure bool) ManagerOption {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithManagerMetrics reports the number of live sessions
func WithManagerMetrics(mt *metrics.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithMaxSessions caps the number of live sessions. When full, the least
// recently seen session is dropped to make room.
func WithMaxSessions(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.maxSessions = n
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a session manager
func NewManager(factory Factory, opts ...ManagerOption) *Manager {
	m := &Manager{
		factory:     factory,
		cookieName:  DefaultCookieName,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
		guest:       newGuestStore(),
		stores:      make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the browser's store.
//
// A browser with a known session cookie gets its store back, unless its
// backend cookies no longer match the ones the store holds (logged out
// through the proxy, expired, changed in another tab); then a fresh store
// replaces it and looks the user up again.
//
// A browser without a session that brings no backend cookies cannot be
// logged in, so reads get the shared guest store and nothing is created.
// A store is only made for browsers with backend cookies or for form
// submissions. created reports whether a new store was made.
func (m *Manager) Get(c echo.Context) (store *Store, created bool, err error) {
	r := c.Request()
	tokens := api.TokensFrom(r.Cookies())

	if ck, err := c.Cookie(m.cookieName); err == nil {
		if existing, ok := m.lookup(ck.Value); ok {
			if existing.Matches(tokens) {
				return existing, false, nil
			}
			return m.replace(c, ck.Value, existing)
		}
	}

	if len(tokens) == 0 && !isSubmission(r) {
		return m.guest, false, nil
	}

	// Unknown ids are never adopted, so a planted cookie cannot pin a victim to a known session
	id := uuid.NewString()
	store, err = m.factory(r)
	if err != nil {
		return nil, false, fmt.Errorf("create session store: %w", err)
	}

	m.mu.Lock()
	evicted := m.makeRoomLocked()
	m.stores[id] = &entry{store: store, lastSeen: m.now()}
	n := len(m.stores)
	m.mu.Unlock()

	if evicted != nil {
		evicted.Close()
	}
	m.metrics.SetActiveSessions(n)
	store.Start()

	c.SetCookie(&http.Cookie{
		Name:     m.cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Debug("created browser session", "sessions", n)
	return store, true, nil
}

func (m *Manager) replace(c echo.Context, id string, old *Store) (*Store, bool, error) {
	store, err := m.factory(c.Request())
	if err != nil {
		return nil, false, fmt.Errorf("create session store: %w", err)
	}

	m.mu.Lock()
	if e, ok := m.stores[id]; ok && e.store == old {
		e.store = store
		e.lastSeen = m.now()
	} else {
		// a concurrent request got there first
		current := old
		if ok {
			current = e.store
		}
		m.mu.Unlock()
		store.Close()
		return current, false, nil
	}
	m.mu.Unlock()

	old.Close()
	store.Start()
	slog.Debug("backend credentials changed, reloading session")
	return store, true, nil
}

// makeRoomLocked drops the least recently seen session when the manager is full
func (m *Manager) makeRoomLocked() *Store {
	if len(m.stores) < m.maxSessions {
		return nil
	}
	var (
		oldestID string
		oldest   *entry
	)
	for id, e := range m.stores {
		if oldest == nil || e.lastSeen.Before(oldest.lastSeen) {
			oldestID, oldest = id, e
		}
	}
	delete(m.stores, oldestID)
	slog.Warn("session limit reached, dropping least recently seen", "limit", m.maxSessions)
	return oldest.store
}

func isSubmission(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

func (m *Manager) lookup(id string) (*Store, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.stores[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = m.now()
	return e.store, true
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

// Sweep closes and forgets sessions not seen for longer than idle
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	var evicted []*Store
	for id, e := range m.stores {
		if e.lastSeen.Before(cutoff) {
			evicted = append(evicted, e.store)
			delete(m.stores, id)
		}
	}
	n := len(m.stores)
	m.mu.Unlock()

	for _, s := range evicted {
		s.Close()
	}
	m.metrics.SetActiveSessions(n)
	return len(evicted)
}

// Close closes every session
func (m *Manager) Close() {
	m.mu.Lock()
	stores := m.stores
	m.stores = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range stores {
		e.store.Close()
	}
	m.metrics.SetActiveSessions(0)
}
