package service

import (
	"fmt"
	"net/url"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// proxiedPrefixes are owned by the backend: its REST API and API docs
var proxiedPrefixes = []string{"/api", "/swagger-ui", "/v3"}

// backendProxy forwards requests unchanged to the backend, so the browser
// only ever talks to one origin
func backendProxy(target string) (echo.HandlerFunc, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}

	mw := echomw.ProxyWithConfig(echomw.ProxyConfig{
		Balancer: echomw.NewRoundRobinBalancer([]*echomw.ProxyTarget{{URL: u}}),
	})
	return mw(echo.NotFoundHandler), nil
}
