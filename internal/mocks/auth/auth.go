package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	domainauth "github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
	"github.com/ecoledesexcellents/ecole-ui/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthAPI   = (*FakeAuthAPI)(nil)
	_ ports.Navigator = (*RecordingNavigator)(nil)
)

// Account is a user known to FakeAuthAPI.
type Account struct {
	Password string
	Identity domainauth.Identity
}

// FakeAuthAPI simulates the backend cookie session in memory. Logging in
// binds the account to the fake "cookie"; CurrentUser reads it back.
// Func fields override the default behaviour.
type FakeAuthAPI struct {
	LoginFunc       func(ctx context.Context, email, password string) error
	LogoutFunc      func(ctx context.Context) error
	CurrentUserFunc func(ctx context.Context) (*domainauth.Identity, error)

	mu       sync.Mutex
	accounts map[string]Account
	current  *domainauth.Identity
	calls    map[string]int
}

// NewFakeAuthAPI creates a FakeAuthAPI with the given accounts keyed by email.
func NewFakeAuthAPI(accounts map[string]Account) *FakeAuthAPI {
	if accounts == nil {
		accounts = map[string]Account{}
	}
	return &FakeAuthAPI{accounts: accounts, calls: map[string]int{}}
}

// SetCurrent binds an identity to the session as if a valid cookie were present.
func (f *FakeAuthAPI) SetCurrent(id *domainauth.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = id
}

// Calls returns how many times method was invoked.
func (f *FakeAuthAPI) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeAuthAPI) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[method]++
}

func (f *FakeAuthAPI) Login(ctx context.Context, email, password string) error {
	f.record("Login")
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, email, password)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[email]
	if !ok || acc.Password != password {
		return apperrors.Unauthenticated(apperrors.MsgInvalidCredentials)
	}
	id := acc.Identity
	f.current = &id
	return nil
}

func (f *FakeAuthAPI) Logout(ctx context.Context) error {
	f.record("Logout")
	if f.LogoutFunc != nil {
		return f.LogoutFunc(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
	return nil
}

func (f *FakeAuthAPI) CurrentUser(ctx context.Context) (*domainauth.Identity, error) {
	f.record("CurrentUser")
	if f.CurrentUserFunc != nil {
		return f.CurrentUserFunc(ctx)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil, apperrors.Unauthenticated(apperrors.MsgSessionExpired)
	}
	id := *f.current
	return &id, nil
}

// RecordingNavigator remembers every location it was sent to.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *RecordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

// Paths returns a copy of the recorded locations.
func (n *RecordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// Last returns the most recent location, or "".
func (n *RecordingNavigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}
