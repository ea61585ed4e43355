package ports

// Package ports defines interfaces (hexagonal ports) for the session core.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
)

// AuthAPI is the backend's cookie authentication surface.
type AuthAPI interface {
	// Login exchanges credentials for session cookies.
	Login(ctx context.Context, email, password string) error

	// Logout asks the backend to clear the session cookies.
	Logout(ctx context.Context) error

	// CurrentUser returns the identity bound to the current session cookie.
	CurrentUser(ctx context.Context) (*domainauth.Identity, error)
}

// Navigator sends the application to another location (the login entry point
// after a failed refresh, a landing page after login).
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(path string) { f(path) }
