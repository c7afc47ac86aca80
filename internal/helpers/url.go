package helpers

import (
	"errors"
	"net/url"
	"strings"
)

// ValidateURL checks that raw is a well-formed http/https URL safe to fetch.
// Relative URLs, exotic schemes, traversal sequences and absurdly deep paths
// are rejected before any network call is made.
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("empty url")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if parsed.Host == "" {
		return errors.New("url missing host")
	}
	if strings.Contains(raw, "..") {
		return errors.New("url contains traversal sequence")
	}
	if strings.Count(raw, "/") > 10 {
		return errors.New("url path is suspiciously deep")
	}
	return nil
}

// PreferHTTPS rewrites a plain http URL to https. Loopback hosts are left
// alone: local servers rarely speak TLS.
func PreferHTTPS(raw string) string {
	if !strings.HasPrefix(raw, "http://") {
		return raw
	}
	if u, err := url.Parse(raw); err == nil {
		switch u.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return raw
		}
	}
	return "https://" + strings.TrimPrefix(raw, "http://")
}
