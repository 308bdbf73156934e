package api

import (
	"errors"
	"fmt"
	"net/http"
)

// User is the record the backend returns for an authenticated account.
// Fields are treated as opaque; the frontend never validates or edits them.
type User struct {
	Email string `json:"email"`
}

// Credentials is the login and signup request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the body returned by every /api/auth endpoint
type AuthResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// ErrUnauthorized matches any 401 or 403 answer from the backend
var ErrUnauthorized = errors.New("api: unauthorized")

// APIError is returned for non-2xx backend responses
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("api: backend returned %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match auth rejections
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}
