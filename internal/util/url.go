package util

import (
	"net/url"
	"strings"
)

// IsRedirectSafe reports whether redirectURL may be used as a post-logout or
// post-login redirect: an empty value, a local path, or an http(s) URL on
// the same host as baseURL.
func IsRedirectSafe(redirectURL, baseURL string) bool {
	if redirectURL == "" {
		return true
	}
	if strings.ContainsAny(redirectURL, "\r\n") {
		return false
	}

	if strings.HasPrefix(redirectURL, "/") {
		// "//host" and "/\host" are treated as absolute by browsers.
		return !strings.HasPrefix(redirectURL, "//") && !strings.Contains(redirectURL, `\`)
	}

	target, err := url.Parse(redirectURL)
	if err != nil {
		return false
	}
	if target.Scheme != "" && target.Scheme != "http" && target.Scheme != "https" {
		return false
	}
	if target.Host == "" {
		return true
	}
	base, err := url.Parse(baseURL)
	return err == nil && target.Host == base.Host
}
