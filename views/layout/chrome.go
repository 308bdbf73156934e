package layout

import "github.com/loganlanou/myapp/internal/auth"

// Chrome is what the shell layout needs to draw its header
type Chrome struct {
	Meta     PageMeta
	Auth     *auth.Context
	LoginURL string
}

// IsLoggedIn reports whether the header should show the user menu
func (c Chrome) IsLoggedIn() bool {
	return c.Auth != nil && c.Auth.IsAuthenticated && c.Auth.User != nil
}

// Email of the logged in user, empty otherwise
func (c Chrome) Email() string {
	if !c.IsLoggedIn() {
		return ""
	}
	return c.Auth.User.Email
}
