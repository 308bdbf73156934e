package layout

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const siteName = "MyApp"

// PageMeta contains the metadata rendered into <head>
type PageMeta struct {
	Title        string
	Description  string
	CanonicalURL string
	SiteName     string
}

// NewPageMeta creates a PageMeta with site-wide defaults.
// siteURL is the public base URL the canonical link is built from.
func NewPageMeta(c echo.Context, siteURL string) PageMeta {
	return PageMeta{
		Title:        siteName,
		Description:  "MyApp web client",
		CanonicalURL: BuildAbsoluteURL(siteURL, c.Request().URL.Path),
		SiteName:     siteName,
	}
}

// WithTitle prefixes the page title
func (pm PageMeta) WithTitle(title string) PageMeta {
	if title != "" {
		pm.Title = title + " - " + pm.SiteName
	}
	return pm
}

// BuildAbsoluteURL constructs an absolute URL from a path
func BuildAbsoluteURL(siteURL, path string) string {
	if path == "" {
		return siteURL
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	siteURL = strings.TrimRight(siteURL, "/")

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return siteURL + path
}
