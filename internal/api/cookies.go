package api

import (
	"context"
	"net/http"
)

type cookieSinkKey struct{}

// WithCookieSink returns a context whose backend calls hand every token
// cookie the backend sets to sink, rewritten for the frontend's origin.
// Handlers use it to pass login and logout cookies on to the browser.
func WithCookieSink(ctx context.Context, sink func(*http.Cookie)) context.Context {
	return context.WithValue(ctx, cookieSinkKey{}, sink)
}

func cookieSink(ctx context.Context) func(*http.Cookie) {
	sink, _ := ctx.Value(cookieSinkKey{}).(func(*http.Cookie))
	return sink
}

// IsTokenCookie reports whether name is one of the backend's auth cookies
func IsTokenCookie(name string) bool {
	return name == AccessTokenCookie || name == RefreshTokenCookie
}

// TokensFrom picks the non-empty backend token cookies out of cookies
func TokensFrom(cookies []*http.Cookie) map[string]string {
	tokens := make(map[string]string)
	for _, ck := range cookies {
		if IsTokenCookie(ck.Name) && ck.Value != "" {
			tokens[ck.Name] = ck.Value
		}
	}
	return tokens
}

// Tokens returns the backend token cookies the client currently holds
func (c *Client) Tokens() map[string]string {
	return TokensFrom(c.httpClient.Jar.Cookies(c.baseURL))
}

// forBrowser copies a backend cookie so the browser stores it for the
// frontend host instead of the backend's domain
func forBrowser(ck *http.Cookie) *http.Cookie {
	out := &http.Cookie{
		Name:     ck.Name,
		Value:    ck.Value,
		Path:     ck.Path,
		Expires:  ck.Expires,
		MaxAge:   ck.MaxAge,
		Secure:   ck.Secure,
		HttpOnly: ck.HttpOnly,
		SameSite: ck.SameSite,
	}
	if out.Path == "" {
		out.Path = "/"
	}
	return out
}

func forwardTokenCookies(ctx context.Context, resp *http.Response) {
	sink := cookieSink(ctx)
	if sink == nil {
		return
	}
	for _, ck := range resp.Cookies() {
		if IsTokenCookie(ck.Name) {
			sink(forBrowser(ck))
		}
	}
}
