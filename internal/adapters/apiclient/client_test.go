package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
	mockauth "github.com/ecoledesexcellents/ecole-ui/internal/mocks/auth"
	"github.com/ecoledesexcellents/ecole-ui/internal/testutil"
)

var adminUser = testutil.FakeUser{
	Password: "secret",
	Identity: domainauth.Identity{
		ID: 1, Email: "admin@ecole.sn", FirstName: "Awa", LastName: "Diop", Role: domainauth.RoleAdmin,
	},
}

type countingObserver struct {
	mu       sync.Mutex
	settled  []bool
	waiters  []int
	rejected int
}

func (o *countingObserver) RefreshSettled(success bool, waiters int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.settled = append(o.settled, success)
	o.waiters = append(o.waiters, waiters)
}

func (o *countingObserver) RefreshRejected() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected++
}

func newTestClient(t *testing.T, baseURL string, refresh RefreshOptions) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: baseURL, Timeout: 5 * time.Second, Refresh: refresh})
	require.NoError(t, err)
	return c
}

func loggedInClient(t *testing.T, refresh RefreshOptions) (*Client, *testutil.FakeBackend) {
	t.Helper()
	backend := testutil.NewFakeBackend(t, "", adminUser)
	c := newTestClient(t, backend.BaseURL(), refresh)
	require.NoError(t, c.Login(context.Background(), adminUser.Identity.Email, adminUser.Password))
	require.True(t, c.HasSession())
	return c, backend
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)

	_, err = New(Options{BaseURL: "ftp://example.org"})
	require.Error(t, err)
}

func TestClient_RequestDefaults(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api/", RefreshOptions{})
	var out []any
	err := c.GetJSON(context.Background(), "/academique/stats/coordons/", map[string][]string{"promotion_id": {"2"}}, &out)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/api/academique/stats/coordons/", got.URL.Path)
	assert.Equal(t, "promotion_id=2", got.URL.RawQuery)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.NotEmpty(t, got.Header.Get(headerRequestID))
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url+"/api", RefreshOptions{})
	_, err := c.Do(context.Background(), &Request{Path: "/academique/cours/"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
	assert.Equal(t, apperrors.MsgNetwork, apperrors.UserMessage(err))
}

func TestClient_CancellationIsNotNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, RefreshOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Do(ctx, &Request{Path: "/x/"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, apperrors.IsNetwork(err))
}

func TestClient_ErrorStatusesPassThrough(t *testing.T) {
	var refreshes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == PathRefresh {
			refreshes.Add(1)
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"Accès non autorisé."}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, RefreshOptions{})
	resp, err := c.Do(context.Background(), &Request{Path: "/academique/cours/"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.Status)
	assert.False(t, resp.OK())

	err = c.GetJSON(context.Background(), "/academique/cours/", nil, nil)
	assert.True(t, apperrors.IsForbidden(err))
	assert.Zero(t, refreshes.Load())
}

func TestClient_LoginAndCurrentUser(t *testing.T) {
	c, backend := loggedInClient(t, RefreshOptions{})

	id, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, id.Role)
	assert.Equal(t, "admin@ecole.sn", id.Email)
	assert.Nil(t, id.Promotion)
	assert.Zero(t, backend.Calls("refresh"))

	info, ok := c.Token()
	require.True(t, ok)
	assert.Equal(t, "1", info.UserID)
	assert.Equal(t, "access", info.TokenType)
	assert.False(t, info.Expired(time.Now()))
}

func TestClient_LoginRejectedDoesNotRefresh(t *testing.T) {
	backend := testutil.NewFakeBackend(t, "", adminUser)
	c := newTestClient(t, backend.BaseURL(), RefreshOptions{})

	err := c.Login(context.Background(), adminUser.Identity.Email, "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
	assert.Equal(t, http.StatusUnauthorized, apperrors.GetStatus(err))
	assert.Zero(t, backend.Calls("refresh"))
	assert.False(t, c.HasSession())
}

func TestClient_ExpiredSessionIsRefreshedOnce(t *testing.T) {
	c, backend := loggedInClient(t, RefreshOptions{})
	before := c.SessionToken()
	backend.ExpireAccess()

	id, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, adminUser.Identity.ID, id.ID)
	assert.Equal(t, 1, backend.Calls("refresh"))
	assert.Equal(t, 1, backend.Calls("me"))
	assert.NotEqual(t, before, c.SessionToken())
}

func TestClient_RefreshAdoptsAccessTokenFromBody(t *testing.T) {
	c, backend := loggedInClient(t, RefreshOptions{})
	backend.SetRefreshBodyOnly(true)
	before := c.SessionToken()
	backend.ExpireAccess()

	_, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, before, c.SessionToken())
	assert.Equal(t, 1, backend.Calls("refresh"))
}

func TestClient_ConcurrentExpiryCoalescesIntoOneRefresh(t *testing.T) {
	const n = 8
	obs := &countingObserver{}
	c, backend := loggedInClient(t, RefreshOptions{Observer: obs})
	backend.ExpireAccess()
	release := backend.GateRefresh()
	defer release()

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.CurrentUser(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool {
		return backend.Calls("refresh") == 1 && c.refresh.queued() == n-1
	}, 5*time.Second, 5*time.Millisecond)
	release()
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, 1, backend.Calls("refresh"))
	assert.Equal(t, []bool{true}, obs.settled)
	assert.Equal(t, []int{n - 1}, obs.waiters)
}

func TestClient_FailedRefreshRejectsEveryWaiter(t *testing.T) {
	const n = 5
	nav := &mockauth.RecordingNavigator{}
	c, backend := loggedInClient(t, RefreshOptions{Navigator: nav, LoginPath: "/auth/login"})
	backend.ExpireAccess()
	backend.SetFailRefresh(true)
	release := backend.GateRefresh()
	defer release()

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.GetJSON(context.Background(), "/academique/cours/", nil, nil)
		}(i)
	}

	require.Eventually(t, func() bool {
		return backend.Calls("refresh") == 1 && c.refresh.queued() == n-1
	}, 5*time.Second, 5*time.Millisecond)
	release()
	wg.Wait()

	for i, err := range errs {
		assert.True(t, apperrors.IsSessionExpired(err), "caller %d: %v", i, err)
	}
	assert.Equal(t, 1, backend.Calls("refresh"))
	assert.Zero(t, backend.Calls("cours"))
	assert.Equal(t, []string{"/auth/login"}, nav.Paths())
}

func TestClient_RetriedRequestIsNotRefreshedAgain(t *testing.T) {
	var refreshes, hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == PathRefresh {
			refreshes.Add(1)
			_, _ = w.Write([]byte(`{"access":"new-token"}`))
			return
		}
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Le jeton est invalide ou expiré"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, RefreshOptions{})
	resp, err := c.Do(context.Background(), &Request{Path: "/academique/cours/"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, "new-token", c.SessionToken())

	err = resp.Err()
	assert.True(t, apperrors.IsUnauthenticated(err))
	assert.Equal(t, apperrors.MsgSessionExpired, apperrors.UserMessage(err))
}

func TestClient_RefreshQueueOverflowFailsFast(t *testing.T) {
	obs := &countingObserver{}
	c, backend := loggedInClient(t, RefreshOptions{QueueLimit: 1, Observer: obs})
	backend.ExpireAccess()
	release := backend.GateRefresh()
	defer release()

	results := make(chan error, 2)
	go func() {
		_, err := c.CurrentUser(context.Background())
		results <- err
	}()
	require.Eventually(t, func() bool { return backend.Calls("refresh") == 1 }, 5*time.Second, 5*time.Millisecond)

	go func() {
		_, err := c.CurrentUser(context.Background())
		results <- err
	}()
	require.Eventually(t, func() bool { return c.refresh.queued() == 1 }, 5*time.Second, 5*time.Millisecond)

	_, err := c.CurrentUser(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsSessionExpired(err))
	assert.ErrorIs(t, err, ErrRefreshQueueFull)

	release()
	for i := 0; i < 2; i++ {
		assert.NoError(t, <-results)
	}
	assert.Equal(t, 1, obs.rejected)
}

func TestClient_LeaderCancellationDoesNotStrandWaiters(t *testing.T) {
	c, backend := loggedInClient(t, RefreshOptions{})
	backend.ExpireAccess()
	release := backend.GateRefresh()
	defer release()

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.CurrentUser(leaderCtx)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return backend.Calls("refresh") == 1 }, 5*time.Second, 5*time.Millisecond)

	waiterErr := make(chan error, 1)
	go func() {
		_, err := c.CurrentUser(context.Background())
		waiterErr <- err
	}()
	require.Eventually(t, func() bool { return c.refresh.queued() == 1 }, 5*time.Second, 5*time.Millisecond)

	cancelLeader()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	release()
	assert.NoError(t, <-waiterErr)
	assert.Equal(t, 1, backend.Calls("refresh"))
}

func TestClient_LogoutClearsCookiesEvenOnServerFailure(t *testing.T) {
	c, backend := loggedInClient(t, RefreshOptions{})
	backend.SetFailLogout(true)

	err := c.Logout(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
	assert.False(t, c.HasSession())
	assert.Empty(t, c.Cookies())
}

func TestClient_SetCookiesRestoresSession(t *testing.T) {
	c, backend := loggedInClient(t, RefreshOptions{})
	saved := c.Cookies()

	fresh := newTestClient(t, backend.BaseURL(), RefreshOptions{})
	fresh.SetCookies(saved)
	id, err := fresh.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, adminUser.Identity.Email, id.Email)
}

func TestClient_SetCookiesLeavesInputUntouched(t *testing.T) {
	c, backend := loggedInClient(t, RefreshOptions{})
	saved := c.Cookies()
	require.NotEmpty(t, saved)
	for _, ck := range saved {
		require.Empty(t, ck.Path)
	}

	fresh := newTestClient(t, backend.BaseURL(), RefreshOptions{})
	fresh.SetCookies(saved)

	for _, ck := range saved {
		assert.Empty(t, ck.Path, "cookie %s", ck.Name)
	}
	assert.True(t, fresh.HasSession())
}

func TestInspectToken_Garbage(t *testing.T) {
	_, err := InspectToken("not-a-jwt")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRefreshQueueFull))
}
