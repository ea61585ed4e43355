package config

import (
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultAPIURL is the local backend used when API_URL is not set.
	DefaultAPIURL = "http://localhost:8000/api"

	defaultRefreshQueueLimit = 1024
)

// APIConfig contains configuration for the backend API client.
type APIConfig struct {
	// BaseURL is the root of the backend REST API; every request path is resolved against it.
	BaseURL string `env:"API_URL" envDefault:"http://localhost:8000/api"`

	// Timeout bounds a single HTTP exchange with the backend.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`

	// RefreshTimeout bounds the shared token refresh call.
	RefreshTimeout time.Duration `env:"API_REFRESH_TIMEOUT" envDefault:"10s"`

	// RefreshQueueLimit caps how many requests may wait on one refresh.
	RefreshQueueLimit int `env:"API_REFRESH_QUEUE_LIMIT" envDefault:"1024"`

	// CookiePropagationDelay is waited between a successful login and the identity fetch.
	CookiePropagationDelay time.Duration `env:"API_COOKIE_PROPAGATION_DELAY" envDefault:"100ms"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.BaseURL == "" {
		a.BaseURL = DefaultAPIURL
	}
	if a.Timeout <= 0 {
		a.Timeout = 30 * time.Second
	}
	if a.RefreshTimeout <= 0 {
		a.RefreshTimeout = 10 * time.Second
	}
	if a.RefreshQueueLimit <= 0 {
		a.RefreshQueueLimit = defaultRefreshQueueLimit
	}
	if a.CookiePropagationDelay < 0 {
		a.CookiePropagationDelay = 0
	}
}

// ParsedBaseURL parses BaseURL.
func (a *APIConfig) ParsedBaseURL() (*url.URL, error) {
	return url.Parse(a.BaseURL)
}
