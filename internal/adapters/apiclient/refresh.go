package apiclient

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
	"github.com/ecoledesexcellents/ecole-ui/internal/ports"
)

const (
	defaultRefreshTimeout    = 10 * time.Second
	defaultRefreshQueueLimit = 1024
	defaultLoginPath         = "/auth/login"
)

// ErrRefreshQueueFull is the cause of the session-expired error returned to a
// request that found the refresh queue at capacity.
var ErrRefreshQueueFull = errors.New("refresh queue full")

// RefreshObserver receives refresh outcomes.
type RefreshObserver interface {
	// RefreshSettled is called once per refresh call with the number of
	// queued requests released by it.
	RefreshSettled(success bool, waiters int, elapsed time.Duration)

	// RefreshRejected is called when a request is turned away because the queue is full.
	RefreshRejected()
}

type nopObserver struct{}

func (nopObserver) RefreshSettled(bool, int, time.Duration) {}
func (nopObserver) RefreshRejected()                        {}

type refresherOptions struct {
	RefreshOptions

	call   func(ctx context.Context) error
	logger *slog.Logger
}

// refresher coalesces concurrent session refreshes: the first 401'd caller
// runs the refresh, later ones wait for its outcome. inFlight and waiters are
// only touched under mu.
type refresher struct {
	mu       sync.Mutex
	inFlight bool
	waiters  []chan error

	limit     int
	timeout   time.Duration
	loginPath string
	call      func(ctx context.Context) error
	navigator ports.Navigator
	observer  RefreshObserver
	logger    *slog.Logger
}

func newRefresher(opts refresherOptions) *refresher {
	r := &refresher{
		limit:     opts.QueueLimit,
		timeout:   opts.Timeout,
		loginPath: opts.LoginPath,
		call:      opts.call,
		navigator: opts.Navigator,
		observer:  opts.Observer,
		logger:    opts.logger,
	}
	if r.limit <= 0 {
		r.limit = defaultRefreshQueueLimit
	}
	if r.timeout <= 0 {
		r.timeout = defaultRefreshTimeout
	}
	if r.loginPath == "" {
		r.loginPath = defaultLoginPath
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// await blocks until the current (or a newly started) refresh settles. It
// returns nil when the session was refreshed and the caller should replay.
func (r *refresher) await(ctx context.Context) error {
	r.mu.Lock()
	if r.inFlight {
		if len(r.waiters) >= r.limit {
			r.mu.Unlock()
			r.observer.RefreshRejected()
			return apperrors.SessionExpired(ErrRefreshQueueFull)
		}
		ch := make(chan error, 1)
		r.waiters = append(r.waiters, ch)
		r.mu.Unlock()
		return wait(ctx, ch)
	}
	r.inFlight = true
	r.mu.Unlock()

	// The refresh outlives the leader's context so waiters are always settled.
	done := make(chan error, 1)
	go func() {
		done <- r.run(context.WithoutCancel(ctx))
	}()
	return wait(ctx, done)
}

func wait(ctx context.Context, ch <-chan error) error {
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *refresher) run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	callErr := r.call(ctx)

	var result error
	if callErr != nil {
		result = apperrors.SessionExpired(callErr)
	}

	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.inFlight = false
	r.mu.Unlock()

	for _, ch := range waiters {
		ch <- result
	}

	r.observer.RefreshSettled(callErr == nil, len(waiters), time.Since(start))
	if callErr != nil {
		r.logger.Warn("session refresh failed",
			"error", callErr,
			"waiters", len(waiters),
			"redirect", r.loginPath,
		)
		if r.navigator != nil {
			r.navigator.Navigate(r.loginPath)
		}
		return result
	}
	r.logger.Debug("session refreshed", "waiters", len(waiters))
	return nil
}

// queued returns the number of requests waiting on the current refresh.
func (r *refresher) queued() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}
