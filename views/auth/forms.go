package auth

import "net/url"

// FormData carries what the login and signup forms re-render with
type FormData struct {
	Email string
	Ref   string
	Error string
}

func withRef(path, ref string) string {
	if ref == "" {
		return path
	}
	return path + "?ref=" + url.QueryEscape(ref)
}
