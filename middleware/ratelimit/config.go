package ratelimit

import (
	"time"
)

// Config holds rate limiter configuration.
type Config struct {
	// MaxRequests is the number of requests allowed per window.
	MaxRequests int

	// Window is the duration of the counting window. The window rolls
	// forward from the request that opens it, not from a clock boundary.
	Window time.Duration

	// Message is the error message returned on denial.
	Message string

	// KeyFunc extracts the client identity from a request key candidate.
	// It receives the raw key (the client IP by default) and may normalize
	// or replace it. Nil means identity is used as-is.
	KeyFunc func(raw string) string
}

// DefaultConfig returns a config with the limits the HTTP API ships with:
// 100 requests per 15 minutes per client, matching a typical public chat
// deployment.
func DefaultConfig() Config {
	return Config{
		MaxRequests: 100,
		Window:      15 * time.Minute,
		Message:     "Too many requests, please try again later.",
	}
}

// Option is a function that modifies Config.
type Option func(*Config)

// WithMaxRequests sets the number of requests allowed per window.
func WithMaxRequests(n int) Option {
	return func(c *Config) {
		c.MaxRequests = n
	}
}

// WithWindow sets the counting window duration.
func WithWindow(d time.Duration) Option {
	return func(c *Config) {
		c.Window = d
	}
}

// WithMessage sets the denial message.
func WithMessage(msg string) Option {
	return func(c *Config) {
		c.Message = msg
	}
}

// WithKeyFunc sets the client identity extraction function.
func WithKeyFunc(fn func(raw string) string) Option {
	return func(c *Config) {
		c.KeyFunc = fn
	}
}
