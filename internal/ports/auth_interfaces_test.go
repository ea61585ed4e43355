package ports_test

import (
	"testing"

	"github.com/ecoledesexcellents/ecole-ui/internal/mocks"
	mockauth "github.com/ecoledesexcellents/ecole-ui/internal/mocks/auth"
	"github.com/ecoledesexcellents/ecole-ui/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthAPI = (*mockauth.FakeAuthAPI)(nil)
	var _ ports.Navigator = (*mockauth.RecordingNavigator)(nil)
	var _ ports.AuthAPI = (*mocks.MockAuthAPI)(nil)
	var _ ports.Cache = (*mocks.MockCache)(nil)
	var _ ports.Backend = (*mocks.MockBackend)(nil)
}

func TestNavigatorFunc(t *testing.T) {
	var got string
	var nav ports.Navigator = ports.NavigatorFunc(func(p string) { got = p })
	nav.Navigate("/auth/login")
	if got != "/auth/login" {
		t.Fatalf("Navigate() = %q, want /auth/login", got)
	}
}
