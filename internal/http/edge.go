package httpx

import (
	"log/slog"
	"net/http"
	"strings"
)

// Default edge gate settings.
const (
	DefaultSessionCookie = "access_token"
	DefaultLoginPath     = "/auth/login"
)

// DefaultProtectedPrefixes are the role dashboards that need a session cookie.
func DefaultProtectedPrefixes() []string {
	return []string{"/admin", "/coordon", "/encadreur", "/etudiant"}
}

// EdgeObserver is told about every gate evaluation.
type EdgeObserver interface {
	EdgeDecision(protected, redirected bool)
}

// EdgeGateOptions configures an EdgeGate. Zero values take the defaults.
type EdgeGateOptions struct {
	ProtectedPrefixes []string
	CookieName        string
	LoginPath         string
	Observer          EdgeObserver
	Logger            *slog.Logger
}

// EdgeGate turns away requests for protected areas that carry no session
// cookie. It only checks presence; roles are enforced by the route guard and
// the backend.
type EdgeGate struct {
	prefixes   []string
	cookieName string
	loginPath  string
	observer   EdgeObserver
	logger     *slog.Logger
}

// NewEdgeGate creates an EdgeGate.
func NewEdgeGate(opts EdgeGateOptions) *EdgeGate {
	prefixes := make([]string, 0, len(opts.ProtectedPrefixes))
	for _, p := range opts.ProtectedPrefixes {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p != "" {
			prefixes = append(prefixes, p)
		}
	}
	if len(opts.ProtectedPrefixes) == 0 {
		prefixes = DefaultProtectedPrefixes()
	}

	g := &EdgeGate{
		prefixes:   prefixes,
		cookieName: opts.CookieName,
		loginPath:  opts.LoginPath,
		observer:   opts.Observer,
		logger:     opts.Logger,
	}
	if g.cookieName == "" {
		g.cookieName = DefaultSessionCookie
	}
	if g.loginPath == "" {
		g.loginPath = DefaultLoginPath
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// IsProtected reports whether path equals a protected prefix or lies below one.
// "/administration" is not below "/admin".
func (g *EdgeGate) IsProtected(path string) bool {
	for _, p := range g.prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// HasSession reports whether the request carries a non-empty session cookie.
func (g *EdgeGate) HasSession(r *http.Request) bool {
	c, err := r.Cookie(g.cookieName)
	return err == nil && c.Value != ""
}

// Middleware redirects (307) protected requests without a session cookie to
// the login path before next runs.
func (g *EdgeGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protected := g.IsProtected(r.URL.Path)
		redirect := protected && !g.HasSession(r)
		if g.observer != nil {
			g.observer.EdgeDecision(protected, redirect)
		}

		if redirect {
			g.logger.DebugContext(r.Context(), "edge gate redirect",
				slog.String("path", r.URL.Path),
				slog.String("location", g.loginPath),
			)
			http.Redirect(w, r, g.loginPath, http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}
