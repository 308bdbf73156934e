package home

import "github.com/loganlanou/myapp/internal/auth"

// Invitation is shown to visitors without a session
const Invitation = "Log in or sign up to get started."

func isLoggedIn(ac *auth.Context) bool {
	return ac != nil && ac.IsAuthenticated && ac.User != nil
}
