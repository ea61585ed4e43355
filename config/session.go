package config

import (
	"os"
	"path/filepath"
	"strings"
)

// SessionConfig describes the session cookie issued by the backend and the
// areas of the application that require it.
type SessionConfig struct {
	// CookieName is the access token cookie set by the backend on login and refresh.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"access_token"`

	// LoginPath is the login entry point used by the edge gate and the route guard.
	LoginPath string `env:"SESSION_LOGIN_PATH" envDefault:"/auth/login"`

	// ProtectedPrefixes lists the path prefixes the edge gate protects.
	ProtectedPrefixes []string `env:"SESSION_PROTECTED_PREFIXES" envDefault:"/admin;/coordon;/encadreur;/etudiant" envSeparator:";"`

	// CookieFile is where ecolectl persists cookies between invocations.
	// Empty means $XDG_CONFIG_HOME/ecole/cookies.json (or the OS equivalent).
	CookieFile string `env:"SESSION_COOKIE_FILE"`
}

// Sanitize normalises session configuration values.
func (s *SessionConfig) Sanitize() {
	s.CookieName = strings.TrimSpace(s.CookieName)
	if s.CookieName == "" {
		s.CookieName = "access_token"
	}

	s.LoginPath = strings.TrimSpace(s.LoginPath)
	if s.LoginPath == "" || !strings.HasPrefix(s.LoginPath, "/") {
		s.LoginPath = "/auth/login"
	}

	prefixes := make([]string, 0, len(s.ProtectedPrefixes))
	for _, p := range s.ProtectedPrefixes {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		prefixes = append(prefixes, p)
	}
	s.ProtectedPrefixes = prefixes

	s.CookieFile = strings.TrimSpace(s.CookieFile)
}

// ResolveCookieFile returns CookieFile or the default location under the user config dir.
func (s *SessionConfig) ResolveCookieFile() (string, error) {
	if s.CookieFile != "" {
		return s.CookieFile, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ecole", "cookies.json"), nil
}
