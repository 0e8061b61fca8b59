// Package config defines the shell configuration and its loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a file and the environment on top.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// Addr configures the shell HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// AppName is appended to every page title.
	AppName string `koanf:"app_name" validate:"required"`

	// APIBaseURL is the absolute base URL of the backend REST API.
	// The shell proxies /api to it and the gateway prefixes every path with it.
	APIBaseURL string `koanf:"api_base_url" validate:"required,url"`

	// RequestTimeoutMS bounds each backend round trip; 0 disables the bound.
	RequestTimeoutMS int `koanf:"request_timeout_ms" validate:"gte=0"`

	// Headers are sent on every backend request in addition to Content-Type.
	// CAPIO_HEADERS_<NAME> adds one entry, underscores in NAME becoming dashes.
	Headers map[string]string `koanf:"headers"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":8080",
		AppName:          "CAPIO",
		APIBaseURL:       "http://localhost:8000/api",
		RequestTimeoutMS: 0,
		Headers:          map[string]string{},
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
