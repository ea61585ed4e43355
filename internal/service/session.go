package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
	"github.com/ecoledesexcellents/ecole-ui/internal/ports"
)

// DefaultCookiePropagationDelay is waited between login and the identity fetch.
const DefaultCookiePropagationDelay = 100 * time.Millisecond

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Auth ports.AuthAPI
	// PropagationDelay overrides DefaultCookiePropagationDelay; negative disables it.
	PropagationDelay time.Duration
	Logger           *slog.Logger
}

// SessionService is the single source of truth for who is logged in. It is
// the only writer of the session state; readers take snapshots or subscribe.
type SessionService struct {
	auth   ports.AuthAPI
	delay  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	state   domainauth.SessionState
	subs    map[int]chan domainauth.SessionState
	nextSub int

	ready chan struct{}
}

// NewSessionService creates the session store and starts the initial identity
// load in the background. The state reports Loading until it settles.
func NewSessionService(ctx context.Context, opts SessionServiceOptions) *SessionService {
	s := newSessionService(opts)
	go func() {
		defer close(s.ready)
		s.RefreshUser(ctx)
	}()
	return s
}

func newSessionService(opts SessionServiceOptions) *SessionService {
	delay := opts.PropagationDelay
	if delay == 0 {
		delay = DefaultCookiePropagationDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		auth:   opts.Auth,
		delay:  delay,
		logger: logger.With("component", "session"),
		state:  domainauth.SessionState{Loading: true},
		subs:   make(map[int]chan domainauth.SessionState),
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the initial identity load has settled.
func (s *SessionService) Ready() <-chan struct{} { return s.ready }

// WaitReady blocks until the initial load settles or ctx ends.
func (s *SessionService) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns a snapshot of the session.
func (s *SessionService) State() domainauth.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe delivers the latest state after every mutation. Slow readers only
// see the most recent state. The returned func unsubscribes and closes the channel.
func (s *SessionService) Subscribe() (<-chan domainauth.SessionState, func()) {
	ch := make(chan domainauth.SessionState, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// RefreshUser reloads the identity from the backend. On failure the identity
// is cleared and the error message kept in the state. It returns the identity
// or nil.
func (s *SessionService) RefreshUser(ctx context.Context) *domainauth.Identity {
	id, _ := s.refresh(ctx)
	return id
}

func (s *SessionService) refresh(ctx context.Context) (*domainauth.Identity, error) {
	s.update(func(st *domainauth.SessionState) {
		st.Loading = true
		st.Error = ""
	})

	id, err := s.auth.CurrentUser(ctx)

	s.update(func(st *domainauth.SessionState) {
		st.Loading = false
		if err != nil {
			st.Identity = nil
			st.Error = apperrors.UserMessage(err)
			return
		}
		st.Identity = id
		st.Error = ""
	})

	if err != nil {
		s.logger.DebugContext(ctx, "identity load failed", "error", err)
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return id, nil
}

// Login authenticates with the backend, waits for the session cookie to
// settle, then loads the identity. A rejected login is reported as
// "Identifiants invalides" unless the backend could not be reached.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domainauth.Identity, error) {
	s.update(func(st *domainauth.SessionState) { st.Error = "" })

	if err := s.auth.Login(ctx, email, password); err != nil {
		err = loginError(err)
		s.setError(err)
		return nil, err
	}

	if err := sleepCtx(ctx, s.delay); err != nil {
		s.setError(err)
		return nil, err
	}

	id, err := s.refresh(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "logged in", "user_id", id.ID, "role", id.Role)
	return id, nil
}

// Logout asks the backend to end the session and clears the identity
// whatever the outcome. Backend failures are logged, not returned.
func (s *SessionService) Logout(ctx context.Context) {
	s.update(func(st *domainauth.SessionState) { st.Error = "" })

	err := s.auth.Logout(ctx)

	s.update(func(st *domainauth.SessionState) { st.Identity = nil })
	if err != nil {
		s.logger.WarnContext(ctx, "logout request failed", "error", err)
	}
}

func (s *SessionService) setError(err error) {
	s.update(func(st *domainauth.SessionState) { st.Error = apperrors.UserMessage(err) })
}

func (s *SessionService) update(fn func(st *domainauth.SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *SessionService) snapshotLocked() domainauth.SessionState {
	snap := s.state
	if snap.Identity != nil {
		id := *snap.Identity
		if id.Promotion != nil {
			promo := *id.Promotion
			id.Promotion = &promo
		}
		snap.Identity = &id
	}
	return snap
}

func loginError(err error) error {
	if apperrors.IsNetwork(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &apperrors.AppError{
		Code:    apperrors.ErrCodeUnauthenticated,
		Message: apperrors.MsgInvalidCredentials,
		Cause:   err,
		Status:  apperrors.GetStatus(err),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
