// Package mocks provides gomock implementations of the ports used by the services.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	cache := mocks.NewMockCache(ctrl)
//	cache.EXPECT().Get(gomock.Any(), "stats:overview").Return(nil, nil)
package mocks

// Generate mock for Cache interface from internal/ports package.
// This creates MockCache with methods for all Cache interface methods:
// Get, Set, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_mock.go github.com/ecoledesexcellents/ecole-ui/internal/ports Cache

// Generate mock for Backend interface from internal/ports package.
// This creates MockBackend with methods for all Backend interface methods:
// GetJSON, SendJSON
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=backend_mock.go github.com/ecoledesexcellents/ecole-ui/internal/ports Backend

// Generate mock for AuthAPI interface from internal/ports package.
// This creates MockAuthAPI with methods for all AuthAPI interface methods:
// Login, Logout, CurrentUser
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_api_mock.go github.com/ecoledesexcellents/ecole-ui/internal/ports AuthAPI
