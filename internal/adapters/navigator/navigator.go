// Package navigator provides ports.Navigator implementations for processes
// without a browser to redirect.
package navigator

import (
	"log/slog"
	"sync"

	"github.com/ecoledesexcellents/ecole-ui/internal/ports"
)

var _ ports.Navigator = (*Logging)(nil)

// Logging logs every navigation request and remembers the latest target.
// An optional callback lets a command react, e.g. by dropping stored cookies.
type Logging struct {
	logger *slog.Logger
	onNav  func(path string)

	mu   sync.Mutex
	last string
}

// NewLogging creates a Logging navigator. onNavigate may be nil.
func NewLogging(logger *slog.Logger, onNavigate func(path string)) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{logger: logger.With("component", "navigator"), onNav: onNavigate}
}

// Navigate implements ports.Navigator.
func (n *Logging) Navigate(path string) {
	n.mu.Lock()
	n.last = path
	n.mu.Unlock()

	n.logger.Info("navigation requested", "location", path)
	if n.onNav != nil {
		n.onNav(path)
	}
}

// Last returns the most recent target, or "".
func (n *Logging) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}
