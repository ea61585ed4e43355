package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ecoledesexcellents/ecole-ui/internal/adapters/apiclient"
	domainauth "github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
	"github.com/ecoledesexcellents/ecole-ui/internal/mocks"
	mockauth "github.com/ecoledesexcellents/ecole-ui/internal/mocks/auth"
	"github.com/ecoledesexcellents/ecole-ui/internal/testutil"
)

var (
	adminAccount = mockauth.Account{
		Password: "admin-pass",
		Identity: domainauth.Identity{ID: 1, Email: "admin@ecole.sn", FirstName: "Awa", LastName: "Diop", Role: domainauth.RoleAdmin},
	}
	etudiantAccount = mockauth.Account{
		Password: "etu-pass",
		Identity: domainauth.Identity{
			ID: 7, Email: "moussa@ecole.sn", FirstName: "Moussa", LastName: "Ba", Role: domainauth.RoleEtudiant,
			Promotion: &domainauth.Promotion{ID: 2, Name: "B1"},
		},
	}
)

func newFakeAuth() *mockauth.FakeAuthAPI {
	return mockauth.NewFakeAuthAPI(map[string]mockauth.Account{
		adminAccount.Identity.Email:    adminAccount,
		etudiantAccount.Identity.Email: etudiantAccount,
	})
}

func newReadySession(t *testing.T, api *mockauth.FakeAuthAPI) *SessionService {
	t.Helper()
	s := NewSessionService(context.Background(), SessionServiceOptions{Auth: api, PropagationDelay: -1})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.WaitReady(ctx))
	return s
}

func TestSessionService_InitialLoadAnonymous(t *testing.T) {
	api := newFakeAuth()
	s := newReadySession(t, api)

	st := s.State()
	assert.False(t, st.Loading)
	assert.Nil(t, st.Identity)
	assert.Equal(t, apperrors.MsgSessionExpired, st.Error)
	assert.Equal(t, 1, api.Calls("CurrentUser"))
}

func TestSessionService_InitialLoadRestoresSession(t *testing.T) {
	api := newFakeAuth()
	id := adminAccount.Identity
	api.SetCurrent(&id)

	s := newReadySession(t, api)

	st := s.State()
	require.True(t, st.Authenticated())
	assert.Equal(t, domainauth.RoleAdmin, st.Identity.Role)
	assert.Empty(t, st.Error)
}

func TestSessionService_StartsLoading(t *testing.T) {
	release := make(chan struct{})
	api := newFakeAuth()
	api.CurrentUserFunc = func(ctx context.Context) (*domainauth.Identity, error) {
		<-release
		return nil, apperrors.Unauthenticated(apperrors.MsgSessionExpired)
	}

	s := NewSessionService(context.Background(), SessionServiceOptions{Auth: api})
	assert.True(t, s.State().Loading)

	close(release)
	<-s.Ready()
	assert.False(t, s.State().Loading)
}

func TestSessionService_Login(t *testing.T) {
	api := newFakeAuth()
	s := newReadySession(t, api)

	id, err := s.Login(context.Background(), etudiantAccount.Identity.Email, etudiantAccount.Password)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, domainauth.RoleEtudiant, id.Role)

	st := s.State()
	require.NotNil(t, st.Identity)
	assert.Equal(t, "B1", st.Identity.Promotion.Name)
	assert.Empty(t, st.Error)
	assert.False(t, st.Loading)
}

func TestSessionService_LoginInvalidCredentials(t *testing.T) {
	api := newFakeAuth()
	s := newReadySession(t, api)

	_, err := s.Login(context.Background(), adminAccount.Identity.Email, "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
	assert.Equal(t, apperrors.MsgInvalidCredentials, s.State().Error)
	assert.Nil(t, s.State().Identity)
	assert.Equal(t, 1, api.Calls("CurrentUser"), "identity is not fetched after a rejected login")
}

func TestSessionService_LoginRejectedWithValidationStatus(t *testing.T) {
	api := newFakeAuth()
	api.LoginFunc = func(context.Context, string, string) error {
		return &apperrors.AppError{Code: apperrors.ErrCodeValidation, Message: "Email et mot de passe requis", Status: 400}
	}
	s := newReadySession(t, api)

	_, err := s.Login(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
	assert.Equal(t, 400, apperrors.GetStatus(err))
	assert.Equal(t, apperrors.MsgInvalidCredentials, s.State().Error)
}

func TestSessionService_LoginNetworkFailureKeepsClass(t *testing.T) {
	api := newFakeAuth()
	api.LoginFunc = func(context.Context, string, string) error {
		return apperrors.Network(errors.New("connection refused"))
	}
	s := newReadySession(t, api)

	_, err := s.Login(context.Background(), adminAccount.Identity.Email, adminAccount.Password)
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
	assert.Equal(t, apperrors.MsgNetwork, s.State().Error)
}

func TestSessionService_LoginClearsPreviousError(t *testing.T) {
	api := newFakeAuth()
	s := newReadySession(t, api)
	require.NotEmpty(t, s.State().Error)

	_, err := s.Login(context.Background(), adminAccount.Identity.Email, adminAccount.Password)
	require.NoError(t, err)
	assert.Empty(t, s.State().Error)
}

func TestSessionService_LoginWaitsForCookiePropagation(t *testing.T) {
	api := newFakeAuth()
	s := NewSessionService(context.Background(), SessionServiceOptions{Auth: api, PropagationDelay: time.Hour})
	<-s.Ready()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Login(ctx, adminAccount.Identity.Email, adminAccount.Password)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, api.Calls("CurrentUser"), "refresh is not started before the delay elapses")
}

func TestSessionService_LoginThenRefreshInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)

	admin := adminAccount.Identity
	gomock.InOrder(
		api.EXPECT().CurrentUser(gomock.Any()).Return(nil, apperrors.Unauthenticated(apperrors.MsgSessionExpired)),
		api.EXPECT().Login(gomock.Any(), "admin@ecole.sn", "admin-pass").Return(nil),
		api.EXPECT().CurrentUser(gomock.Any()).Return(&admin, nil),
	)

	s := NewSessionService(context.Background(), SessionServiceOptions{Auth: api, PropagationDelay: time.Millisecond})
	<-s.Ready()

	id, err := s.Login(context.Background(), "admin@ecole.sn", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, id.Role)
}

func TestSessionService_LogoutClearsIdentity(t *testing.T) {
	api := newFakeAuth()
	s := newReadySession(t, api)
	_, err := s.Login(context.Background(), adminAccount.Identity.Email, adminAccount.Password)
	require.NoError(t, err)

	s.Logout(context.Background())

	assert.Nil(t, s.State().Identity)
	assert.Equal(t, 1, api.Calls("Logout"))
}

func TestSessionService_LogoutClearsIdentityWhenServerFails(t *testing.T) {
	api := newFakeAuth()
	api.LogoutFunc = func(context.Context) error {
		return apperrors.Internal(apperrors.MsgServer)
	}
	s := newReadySession(t, api)
	_, err := s.Login(context.Background(), adminAccount.Identity.Email, adminAccount.Password)
	require.NoError(t, err)

	s.Logout(context.Background())

	st := s.State()
	assert.Nil(t, st.Identity)
	assert.Empty(t, st.Error)
}

func TestSessionService_RefreshUserFailureClearsIdentity(t *testing.T) {
	api := newFakeAuth()
	s := newReadySession(t, api)
	_, err := s.Login(context.Background(), adminAccount.Identity.Email, adminAccount.Password)
	require.NoError(t, err)

	api.SetCurrent(nil)
	assert.Nil(t, s.RefreshUser(context.Background()))

	st := s.State()
	assert.Nil(t, st.Identity)
	assert.Equal(t, apperrors.MsgSessionExpired, st.Error)
	assert.False(t, st.Loading)
}

func TestSessionService_SubscribeSeesEveryTransition(t *testing.T) {
	api := newFakeAuth()
	s := newReadySession(t, api)

	gate := make(chan struct{})
	api.CurrentUserFunc = func(context.Context) (*domainauth.Identity, error) {
		<-gate
		id := adminAccount.Identity
		return &id, nil
	}

	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.RefreshUser(context.Background())
	}()

	first := <-updates
	assert.True(t, first.Loading)
	assert.Empty(t, first.Error)

	close(gate)
	<-done
	last := <-updates
	assert.False(t, last.Loading)
	assert.True(t, last.Authenticated())
}

func TestSessionService_SubscribeLatestWins(t *testing.T) {
	api := newFakeAuth()
	s := newReadySession(t, api)

	updates, unsubscribe := s.Subscribe()
	for i := 0; i < 3; i++ {
		s.RefreshUser(context.Background())
	}
	_, err := s.Login(context.Background(), adminAccount.Identity.Email, adminAccount.Password)
	require.NoError(t, err)

	st := <-updates
	require.NotNil(t, st.Identity)
	assert.Equal(t, domainauth.RoleAdmin, st.Identity.Role)

	unsubscribe()
	_, ok := <-updates
	assert.False(t, ok)
	unsubscribe()
}

func TestSessionService_StateIsSnapshot(t *testing.T) {
	api := newFakeAuth()
	s := newReadySession(t, api)
	_, err := s.Login(context.Background(), etudiantAccount.Identity.Email, etudiantAccount.Password)
	require.NoError(t, err)

	st := s.State()
	st.Identity.Role = domainauth.RoleAdmin
	st.Identity.Promotion.Name = "M1"

	again := s.State()
	assert.Equal(t, domainauth.RoleEtudiant, again.Identity.Role)
	assert.Equal(t, "B1", again.Identity.Promotion.Name)
}

func TestSessionService_LoginAgainstBackend(t *testing.T) {
	backend := testutil.NewFakeBackend(t, "", testutil.FakeUser{
		Password: etudiantAccount.Password,
		Identity: etudiantAccount.Identity,
	})
	nav := &mockauth.RecordingNavigator{}
	client, err := apiclient.New(apiclient.Options{
		BaseURL: backend.BaseURL(),
		Timeout: 5 * time.Second,
		Refresh: apiclient.RefreshOptions{Navigator: nav},
	})
	require.NoError(t, err)

	s := NewSessionService(context.Background(), SessionServiceOptions{Auth: client, PropagationDelay: time.Millisecond})
	require.NoError(t, s.WaitReady(context.Background()))
	assert.Nil(t, s.State().Identity)

	id, err := s.Login(context.Background(), etudiantAccount.Identity.Email, etudiantAccount.Password)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleEtudiant, id.Role)
	require.NotNil(t, id.Promotion)
	assert.Equal(t, 2, id.Promotion.ID)

	guard := NewRouteGuard(RouteGuardOptions{Sessions: s})
	assert.True(t, guard.Check(id.Role).Allowed())
	assert.False(t, guard.Check(domainauth.RoleAdmin).Allowed())
}
