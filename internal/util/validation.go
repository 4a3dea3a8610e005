package util

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
)

// headerNameRegex validates HTTP header names according to RFC 7230.
var headerNameRegex = regexp.MustCompile(`^[!#$%&'*+\-.^_` + "`" + `|~0-9A-Za-z]+$`)

// methodRegex validates HTTP method tokens.
var methodRegex = regexp.MustCompile(`^[A-Za-z]+$`)

// ValidateURL validates an absolute http(s) URL string.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("URL must have a scheme (http or https)")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got: %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}

// ValidateHeaderName validates an HTTP header name.
func ValidateHeaderName(name string) error {
	if name == "" {
		return fmt.Errorf("header name cannot be empty")
	}

	if !headerNameRegex.MatchString(name) {
		return fmt.Errorf("invalid header name: %s", name)
	}

	return nil
}

// ValidateMethod validates an HTTP method token.
func ValidateMethod(method string) error {
	if method == "" {
		return fmt.Errorf("method cannot be empty")
	}
	if !methodRegex.MatchString(method) {
		return fmt.Errorf("invalid method: %s", method)
	}
	return nil
}

// ValidateListenAddress validates a host:port listen address. An empty host
// binds all interfaces.
func ValidateListenAddress(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q", port)
	}
	if p < 0 || p > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got: %d", p)
	}
	return nil
}
