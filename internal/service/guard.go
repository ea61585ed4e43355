package service

import (
	"context"
	"fmt"

	domainauth "github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
)

// DefaultLoginPath is where the guard sends visitors it turns away.
const DefaultLoginPath = "/auth/login"

// SessionSource is the read side of the session store.
type SessionSource interface {
	State() domainauth.SessionState
	Subscribe() (<-chan domainauth.SessionState, func())
}

var _ SessionSource = (*SessionService)(nil)

// Decision is the outcome of a guard evaluation.
type Decision struct {
	// Pending is set while the session is still loading; nothing is decided.
	Pending bool
	// Redirect is the location to send the visitor to, empty when allowed.
	Redirect string
	Identity *domainauth.Identity
}

// Allowed reports whether the view may render.
func (d Decision) Allowed() bool { return !d.Pending && d.Redirect == "" }

// Evaluate decides access for a session state. An empty allowed set admits any
// authenticated identity. Disallowed roles are sent to loginPath like
// anonymous visitors.
func Evaluate(state domainauth.SessionState, allowed []domainauth.Role, loginPath string) Decision {
	if state.Loading {
		return Decision{Pending: true}
	}
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	if state.Identity == nil {
		return Decision{Redirect: loginPath}
	}
	if len(allowed) > 0 && !state.Identity.HasRole(allowed...) {
		return Decision{Redirect: loginPath, Identity: state.Identity}
	}
	return Decision{Identity: state.Identity}
}

// RedirectError is returned by RouteGuard.Require when the visitor must leave.
type RedirectError struct {
	Location string
	Cause    *apperrors.AppError
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirect to %s: %s", e.Location, e.Cause.Message)
}

func (e *RedirectError) Unwrap() error { return e.Cause }

// RouteGuardOptions groups dependencies for RouteGuard.
type RouteGuardOptions struct {
	Sessions  SessionSource
	LoginPath string
}

// RouteGuard applies role requirements to the session state.
type RouteGuard struct {
	sessions  SessionSource
	loginPath string
}

// NewRouteGuard creates a RouteGuard.
func NewRouteGuard(opts RouteGuardOptions) *RouteGuard {
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return &RouteGuard{sessions: opts.Sessions, loginPath: loginPath}
}

// Check evaluates the current session state.
func (g *RouteGuard) Check(allowed ...domainauth.Role) Decision {
	return Evaluate(g.sessions.State(), allowed, g.loginPath)
}

// Watch calls fn with the current decision and again after every session
// change until ctx ends.
func (g *RouteGuard) Watch(ctx context.Context, allowed []domainauth.Role, fn func(Decision)) {
	updates, unsubscribe := g.sessions.Subscribe()
	defer unsubscribe()

	fn(g.Check(allowed...))
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			fn(Evaluate(st, allowed, g.loginPath))
		}
	}
}

// Require waits for the session to settle and returns the identity when one of
// allowed roles holds it. Otherwise it returns a *RedirectError.
func (g *RouteGuard) Require(ctx context.Context, allowed ...domainauth.Role) (*domainauth.Identity, error) {
	updates, unsubscribe := g.sessions.Subscribe()
	defer unsubscribe()

	d := g.Check(allowed...)
	for d.Pending {
		select {
		case <-ctx.Done():
			return nil, apperrors.FromContext(ctx.Err())
		case st, ok := <-updates:
			if !ok {
				return nil, apperrors.Internal("session store closed")
			}
			d = Evaluate(st, allowed, g.loginPath)
		}
	}

	if d.Redirect == "" {
		return d.Identity, nil
	}
	cause := apperrors.Unauthenticated(apperrors.MsgSessionExpired)
	if d.Identity != nil {
		cause = apperrors.Forbidden(apperrors.MsgForbidden)
	}
	return nil, &RedirectError{Location: d.Redirect, Cause: cause}
}
