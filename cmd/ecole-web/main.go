// Command ecole-web serves the exported frontend behind the edge gate and
// proxies /api/ to the backend.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ecoledesexcellents/ecole-ui/config"
	"github.com/ecoledesexcellents/ecole-ui/internal/bootstrap"
	"github.com/ecoledesexcellents/ecole-ui/internal/observability/metrics"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	bootstrap.ApplyLogLevel(&cfg)
	logStartupInfo(ctx, logger, &cfg)

	var m *metrics.Metrics
	if cfg.Observability.MetricsEnabled {
		m = metrics.New()
	}

	handler, err := bootstrap.BuildEdgeHandler(bootstrap.EdgeDeps{
		Config:  &cfg,
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	server, errCh := bootstrap.StartHTTPServer(logger, handler, cfg.HTTP.Addr)
	return bootstrap.WaitForShutdown(ctx, server, errCh, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting ecole-web",
		"api_url", cfg.API.BaseURL,
		"proxy_api", cfg.HTTP.ProxyAPI,
		"static_dir", cfg.HTTP.StaticDir,
		"protected_prefixes", cfg.Session.ProtectedPrefixes,
		"metrics", cfg.Observability.MetricsEnabled,
	)
}
