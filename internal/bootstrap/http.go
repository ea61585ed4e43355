package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecoledesexcellents/ecole-ui/config"
	httpx "github.com/ecoledesexcellents/ecole-ui/internal/http"
	"github.com/ecoledesexcellents/ecole-ui/internal/observability/metrics"
)

const (
	shutdownWaitTimeout = 10 * time.Second
	backendDialTimeout  = 2 * time.Second
)

// EdgeDeps contains what the edge server handler is built from.
type EdgeDeps struct {
	Config *config.AppConfig
	// Static overrides Config.HTTP.StaticDir.
	Static fs.FS
	// Metrics is optional; /metrics is only served when it is set.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// BuildEdgeHandler composes the edge gate, the API proxy, the frontend and
// the operational endpoints.
func BuildEdgeHandler(deps EdgeDeps) (http.Handler, error) {
	if deps.Config == nil {
		return nil, errors.New("edge deps missing AppConfig")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := httpx.RouterOptions{
		Static: deps.Static,
		Checks: map[string]httpx.HealthChecker{},
		Logger: logger,
	}

	gateOpts := httpx.EdgeGateOptions{
		ProtectedPrefixes: cfg.Session.ProtectedPrefixes,
		CookieName:        cfg.Session.CookieName,
		LoginPath:         cfg.Session.LoginPath,
		Logger:            logger,
	}
	var proxyObserver httpx.ProxyObserver
	if deps.Metrics != nil {
		gateOpts.Observer = deps.Metrics
		proxyObserver = deps.Metrics
		opts.Observer = deps.Metrics
		opts.Metrics = deps.Metrics.Handler()
	}
	opts.Gate = httpx.NewEdgeGate(gateOpts)

	target, err := cfg.API.ParsedBaseURL()
	if err != nil {
		return nil, fmt.Errorf("parse API_URL: %w", err)
	}
	if cfg.HTTP.ProxyAPI {
		proxy, err := httpx.NewAPIProxy(httpx.ProxyOptions{
			Target:   target,
			Observer: proxyObserver,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create api proxy: %w", err)
		}
		opts.API = proxy
	}
	opts.Checks["backend"] = backendCheck(target.Host, target.Scheme)

	if opts.Static == nil && cfg.HTTP.StaticDir != "" {
		if info, err := os.Stat(cfg.HTTP.StaticDir); err == nil && info.IsDir() {
			opts.Static = os.DirFS(cfg.HTTP.StaticDir)
		} else {
			logger.Warn("frontend build not found; serving API and health endpoints only",
				"static_dir", cfg.HTTP.StaticDir)
		}
	}

	return httpx.NewRouter(opts), nil
}

// backendCheck dials the backend host.
func backendCheck(host, scheme string) httpx.HealthChecker {
	if _, _, err := net.SplitHostPort(host); err != nil {
		port := "80"
		if scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(host, port)
	}
	return httpx.HealthCheckerFunc(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, backendDialTimeout)
		defer cancel()
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", host)
		if err != nil {
			return err
		}
		return conn.Close()
	})
}

// StartHTTPServer starts serving handler on addr in the background. A
// listen failure is delivered on the returned channel.
func StartHTTPServer(logger *slog.Logger, handler http.Handler, addr string) (*http.Server, <-chan error) {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":3000"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	return server, errCh
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownWaitTimeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}

// WaitForShutdown blocks until SIGINT/SIGTERM, ctx cancellation or a server
// error, then stops the server.
func WaitForShutdown(ctx context.Context, server *http.Server, errCh <-chan error, logger *slog.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		logger.Info("shutting down edge server...")
	case <-ctx.Done():
		logger.Info("shutting down edge server...", "reason", ctx.Err())
	case err := <-errCh:
		logger.Error("edge server error", "error", err)
		if stopErr := ShutdownHTTPServer(ShutdownConfig{Server: server, Logger: logger}); stopErr != nil {
			logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}

	return ShutdownHTTPServer(ShutdownConfig{Server: server, Logger: logger})
}
