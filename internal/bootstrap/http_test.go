package bootstrap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoledesexcellents/ecole-ui/internal/observability/metrics"
	"github.com/ecoledesexcellents/ecole-ui/internal/testutil"
)

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestBuildEdgeHandler(t *testing.T) {
	backend := testutil.NewFakeBackend(t, "")
	m := metrics.New()

	handler, err := BuildEdgeHandler(EdgeDeps{
		Config: testConfig(backend.BaseURL()),
		Static: fstest.MapFS{
			"index.html":            {Data: []byte("accueil")},
			"etudiant/index.html":   {Data: []byte("espace etudiant")},
			"_next/static/chunk.js": {Data: []byte("chunk")},
		},
		Metrics: m,
		Logger:  quietLogger(),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/etudiant")
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))

	resp, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "accueil", body)

	resp, body = get(t, srv.URL+"/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"backend":"ok"`)

	resp, _ = get(t, srv.URL+"/api/auth/users/me/")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `ecole_edge_decisions_total{decision="redirect"} 1`)
}

func TestBuildEdgeHandler_StaticDirAndNoProxy(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("depuis le disque"), 0o600))

	cfg := testConfig("http://127.0.0.1:1/api")
	cfg.HTTP.StaticDir = dir
	cfg.HTTP.ProxyAPI = false

	handler, err := BuildEdgeHandler(EdgeDeps{Config: cfg, Logger: quietLogger()})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	_, body := get(t, srv.URL+"/")
	assert.Equal(t, "depuis le disque", body)

	_, body = get(t, srv.URL+"/metrics")
	assert.NotContains(t, body, "ecole_edge_decisions_total")

	resp, body := get(t, srv.URL+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, `"backend":"unavailable"`)
}

func TestBuildEdgeHandler_RequiresConfig(t *testing.T) {
	_, err := BuildEdgeHandler(EdgeDeps{})
	require.Error(t, err)
}

func TestBackendCheck_DefaultPorts(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	require.NoError(t, backendCheck(host, "http").Health(context.Background()))
}

func TestStartAndShutdownHTTPServer(t *testing.T) {
	server, errCh := StartHTTPServer(quietLogger(), http.NotFoundHandler(), "127.0.0.1:0")
	require.NoError(t, ShutdownHTTPServer(ShutdownConfig{Context: context.Background(), Server: server, Logger: quietLogger()}))
	select {
	case err := <-errCh:
		t.Fatalf("unexpected server error: %v", err)
	default:
	}
	assert.NoError(t, ShutdownHTTPServer(ShutdownConfig{}))
}

func TestWaitForShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	server := &http.Server{Handler: http.NotFoundHandler()}
	require.NoError(t, WaitForShutdown(ctx, server, nil, quietLogger()))

	errCh := make(chan error, 1)
	errCh <- assert.AnError
	err := WaitForShutdown(context.Background(), &http.Server{}, errCh, quietLogger())
	assert.ErrorIs(t, err, assert.AnError)
}
