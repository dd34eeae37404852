package session

import (
	"net/http"
	"time"
)

// Option configures a Manager.
type Option func(*managerOptions)

// managerOptions holds the settings used when building sessions.
type managerOptions struct {
	timeout            time.Duration
	userAgent          string
	insecureSkipVerify bool
	transport          http.RoundTripper
}

func defaultOptions() managerOptions {
	return managerOptions{
		timeout:   30 * time.Second,
		userAgent: "qbitctl",
	}
}

// WithTimeout sets the HTTP client timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(o *managerOptions) {
		if timeout >= 0 {
			o.timeout = timeout
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *managerOptions) {
		o.userAgent = userAgent
	}
}

// WithInsecureSkipVerify disables certificate verification.
// Use with caution and only for self-signed daemons you trust.
func WithInsecureSkipVerify(skip bool) Option {
	return func(o *managerOptions) {
		o.insecureSkipVerify = skip
	}
}

// WithTransport replaces the HTTP transport of every new session.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *managerOptions) {
		o.transport = rt
	}
}
