package session

import (
	"fmt"

	"github.com/loganlanou/myapp/internal/api"
)

// State is one of Uninitialized, Loading, Unauthenticated or Authenticated
type State interface {
	sessionState()
	String() string
}

// Uninitialized is the state of a store whose first lookup has not started
type Uninitialized struct{}

// Loading means the first lookup of the current user is in flight
type Loading struct{}

// Unauthenticated means no user is logged in
type Unauthenticated struct{}

// Authenticated carries the logged in user
type Authenticated struct {
	User api.User
}

func (Uninitialized) sessionState()   {}
func (Loading) sessionState()         {}
func (Unauthenticated) sessionState() {}
func (Authenticated) sessionState()   {}

func (Uninitialized) String() string   { return "uninitialized" }
func (Loading) String() string         { return "loading" }
func (Unauthenticated) String() string { return "unauthenticated" }
func (a Authenticated) String() string { return fmt.Sprintf("authenticated(%s)", a.User.Email) }

// Session is a read-only snapshot of a store's state
type Session struct {
	state State
}

// NewSession wraps a state in a snapshot
func NewSession(state State) Session {
	return Session{state: state}
}

// State returns the snapshot's state
func (s Session) State() State {
	if s.state == nil {
		return Uninitialized{}
	}
	return s.state
}

// IsLoading is true until the first resolution completes
func (s Session) IsLoading() bool {
	switch s.State().(type) {
	case Uninitialized, Loading:
		return true
	default:
		return false
	}
}

// IsAuthenticated is true iff a user is present
func (s Session) IsAuthenticated() bool {
	_, ok := s.User()
	return ok
}

// User returns the logged in user, if any
func (s Session) User() (api.User, bool) {
	if a, ok := s.State().(Authenticated); ok {
		return a.User, true
	}
	return api.User{}, false
}

// LogoutPolicy decides what happens to local state when the backend logout call fails
type LogoutPolicy int

const (
	// LogoutClearAlways drops the local user once the call returns, whatever its outcome
	LogoutClearAlways LogoutPolicy = iota
	// LogoutClearOnSuccess keeps the local user when the call fails
	LogoutClearOnSuccess
)

func (p LogoutPolicy) String() string {
	switch p {
	case LogoutClearOnSuccess:
		return "clear-on-success"
	default:
		return "clear-always"
	}
}

// ParseLogoutPolicy parses the LOGOUT_POLICY setting
func ParseLogoutPolicy(s string) (LogoutPolicy, error) {
	switch s {
	case "", "clear-always":
		return LogoutClearAlways, nil
	case "clear-on-success":
		return LogoutClearOnSuccess, nil
	default:
		return LogoutClearAlways, fmt.Errorf("unknown logout policy %q", s)
	}
}
