package session

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/loganlanou/myapp/internal/api"
)

const defaultInitTimeout = 15 * time.Second

var (
	// ErrAlreadyInitialized is returned by a second call to Initialize
	ErrAlreadyInitialized = errors.New("session: already initialized")
	// ErrNoBackend is returned by the guest store, which cannot log anyone in
	ErrNoBackend = errors.New("session: store has no backend")
)

// Backend is the subset of the API client a Store needs
type Backend interface {
	Me(ctx context.Context) (api.User, error)
	Login(ctx context.Context, creds api.Credentials) (api.User, error)
	Signup(ctx context.Context, creds api.Credentials) (api.User, error)
	Logout(ctx context.Context) error
}

// TokenHolder is implemented by backends that carry a browser's backend
// credentials, so a store can tell when the browser's copy has moved on
type TokenHolder interface {
	Tokens() map[string]string
}

// Store owns the session state of one browser. The state only changes
// through Initialize, Login, Signup and Logout.
type Store struct {
	backend     Backend
	policy      LogoutPolicy
	initTimeout time.Duration

	mu          sync.Mutex
	state       State
	generation  uint64
	initStarted bool
	resolved    chan struct{}
	isResolved  bool
	subs        []chan Session
	closed      bool
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLogoutPolicy sets how Logout treats a failed backend call
func WithLogoutPolicy(p LogoutPolicy) StoreOption {
	return func(s *Store) {
		s.policy = p
	}
}

// WithInitTimeout bounds the background lookup started by Start
func WithInitTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.initTimeout = d
		}
	}
}

// NewStore creates an uninitialized store
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend:     backend,
		policy:      LogoutClearAlways,
		initTimeout: defaultInitTimeout,
		state:       Uninitialized{},
		resolved:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newGuestStore returns a store already resolved to Unauthenticated, for
// visitors that carry no backend credentials
func newGuestStore() *Store {
	s := NewStore(nil)
	s.state = Unauthenticated{}
	s.initStarted = true
	s.resolveLocked()
	return s
}

// Matches reports whether the store still speaks for a browser holding
// the given backend tokens. Stores whose backend does not expose its
// tokens always match.
func (s *Store) Matches(browserTokens map[string]string) bool {
	holder, ok := s.backend.(TokenHolder)
	if !ok {
		return true
	}
	return maps.Equal(holder.Tokens(), browserTokens)
}

// Snapshot returns the current session
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Session{state: s.state}
}

// Resolved is closed once the store has left the loading state
func (s *Store) Resolved() <-chan struct{} {
	return s.resolved
}

// Wait blocks until the store has resolved or ctx is done
func (s *Store) Wait(ctx context.Context) error {
	select {
	case <-s.resolved:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs Initialize in the background
func (s *Store) Start() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.initTimeout)
		defer cancel()
		if err := s.Initialize(ctx); err != nil && !errors.Is(err, ErrAlreadyInitialized) {
			slog.Error("session initialization failed", "error", err)
		}
	}()
}

// Initialize looks up the current user once. Any failure resolves to
// Unauthenticated; the error is not surfaced. A result that arrives after a
// login, signup or logout has already completed is discarded.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initStarted {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.initStarted = true
	if s.isResolved {
		// a login or logout already settled the state
		s.mu.Unlock()
		return nil
	}
	gen := s.generation
	s.setLocked(Loading{})
	s.mu.Unlock()

	user, err := s.backend.Me(ctx)
	if err != nil {
		slog.Debug("no current user", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		slog.Debug("discarding stale user lookup", "state", s.state.String())
		s.resolveLocked()
		return nil
	}

	if err != nil {
		s.setLocked(Unauthenticated{})
	} else {
		s.setLocked(Authenticated{User: user})
	}
	s.resolveLocked()
	return nil
}

// Login authenticates and replaces the user. On failure the error is
// returned and the state is left as it was.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if s.backend == nil {
		return ErrNoBackend
	}
	user, err := s.backend.Login(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	s.commit(Authenticated{User: user})
	return nil
}

// Signup registers, then behaves like Login
func (s *Store) Signup(ctx context.Context, email, password string) error {
	if s.backend == nil {
		return ErrNoBackend
	}
	user, err := s.backend.Signup(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	s.commit(Authenticated{User: user})
	return nil
}

// Logout ends the backend session and drops the local user according to
// the store's LogoutPolicy. The backend error, if any, is always returned.
func (s *Store) Logout(ctx context.Context) error {
	if s.backend == nil {
		return ErrNoBackend
	}
	err := s.backend.Logout(ctx)
	if err != nil && s.policy == LogoutClearOnSuccess {
		return err
	}
	s.commit(Unauthenticated{})
	return err
}

// Subscribe returns a channel that receives the latest session after every change.
// Slow readers only see the most recent value.
func (s *Store) Subscribe() <-chan Session {
	ch := make(chan Session, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

// Close ends all subscriptions. The store stays readable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

func (s *Store) commit(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.setLocked(state)
	s.resolveLocked()
}

func (s *Store) setLocked(state State) {
	s.state = state
	snap := Session{state: state}
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *Store) resolveLocked() {
	if s.isResolved {
		return
	}
	s.isResolved = true
	close(s.resolved)
}
