package handlers

import (
	"net/url"
	"strings"
)

// RefParam is the query parameter carrying the page to return to after login
const RefParam = "ref"

var disallowedRef = map[string]struct{}{
	"/login":  {},
	"/signup": {},
	"/logout": {},
}

// LoginURL builds the login link for a page, remembering the page as the
// return target: "/dashboard/x" -> "/login?ref=%2Fdashboard%2Fx"
func LoginURL(currentPath string) string {
	if currentPath == "" {
		return "/login"
	}
	return "/login?" + RefParam + "=" + url.QueryEscape(currentPath)
}

// CurrentPath returns the path plus query of u, as used for return targets
func CurrentPath(u *url.URL) string {
	if u.RawQuery == "" {
		return u.Path
	}
	return u.Path + "?" + u.RawQuery
}

func sanitizeRef(path string) (string, bool) {
	if path == "" {
		return "", false
	}

	if strings.ContainsAny(path, "\r\n\\") {
		return "", false
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "//") {
		return "", false
	}

	if !strings.HasPrefix(path, "/") {
		return "", false
	}

	base := path
	if idx := strings.IndexAny(path, "?#"); idx != -1 {
		base = path[:idx]
	}

	if _, blocked := disallowedRef[base]; blocked {
		return "", false
	}

	return path, true
}

// afterLogin is where a successful login or signup lands
func afterLogin(ref string) string {
	if sanitized, ok := sanitizeRef(ref); ok {
		return sanitized
	}
	return "/"
}
