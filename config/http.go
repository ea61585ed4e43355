package config

import "strings"

// HTTPConfig contains edge HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":3000"`

	// StaticDir is the directory holding the exported frontend build.
	StaticDir string `env:"HTTP_STATIC_DIR" envDefault:"web/out"`

	// ProxyAPI forwards /api/ requests to the backend so the browser stays same-origin.
	ProxyAPI bool `env:"HTTP_PROXY_API" envDefault:"true"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.Addr = strings.TrimSpace(h.Addr)
	if h.Addr == "" {
		h.Addr = ":3000"
	}
	h.StaticDir = strings.TrimSpace(h.StaticDir)
}
