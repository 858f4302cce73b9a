package config

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL trims surrounding whitespace and trailing slashes
func NormalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// ValidateURL requires an absolute http or https URL
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("api.base_url cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("api.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url must include a host, got %q", raw)
	}
	return nil
}
