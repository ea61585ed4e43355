package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ecoledesexcellents/ecole-ui/config"
	"github.com/ecoledesexcellents/ecole-ui/internal/adapters/cookiefile"
	"github.com/ecoledesexcellents/ecole-ui/internal/adapters/navigator"
	"github.com/ecoledesexcellents/ecole-ui/internal/bootstrap"
	domainauth "github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
)

type globalFlags struct {
	apiURL     string
	cookieFile string
	output     string
	logLevel   string
}

// app is one invocation's session: like a browser tab it owns a single
// session store, shared by everything the command does.
type app struct {
	logger *slog.Logger
	flags  globalFlags

	out      io.Writer
	cfg      config.AppConfig
	store    *cookiefile.Store
	redis    redis.UniversalClient
	services bootstrap.ServiceContainer

	// expired is set when the session could not be repaired.
	expired atomic.Bool
}

// action wraps fn with opening and closing the session.
func (a *app) action(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		a.out = cmd.OutOrStdout()
		if err := a.open(ctx); err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, a.close(ctx))
		}()
		return fn(ctx, args)
	}
}

func (a *app) open(ctx context.Context) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if a.flags.apiURL != "" {
		cfg.API.BaseURL = a.flags.apiURL
		cfg.API.Sanitize()
	}
	if a.flags.cookieFile != "" {
		cfg.Session.CookieFile = a.flags.cookieFile
	}
	if a.flags.logLevel != "" {
		cfg.Observability.LogLevel = a.flags.logLevel
		cfg.Observability.Sanitize()
	}
	if err := checkOutput(a.flags.output); err != nil {
		return err
	}
	bootstrap.ApplyLogLevel(&cfg)
	a.cfg = cfg

	path, err := cfg.Session.ResolveCookieFile()
	if err != nil {
		return fmt.Errorf("resolve cookie file: %w", err)
	}
	a.store = cookiefile.New(path)
	cookies, err := a.store.Load(cfg.API.BaseURL)
	if err != nil {
		a.logger.WarnContext(ctx, "ignoring unreadable cookie file", "path", path, "error", err)
		cookies = nil
	}

	if cfg.Cache.UsesRedis() {
		client, err := bootstrap.ConnectRedis(ctx, bootstrap.RedisDeps{Config: cfg.Redis, Logger: a.logger})
		if err != nil {
			a.logger.WarnContext(ctx, "redis unavailable; caching in memory", "error", err)
		} else {
			a.redis = client
		}
	}

	nav := navigator.NewLogging(a.logger, func(string) {
		a.expired.Store(true)
	})

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:      &a.cfg,
		RedisClient: a.redis,
		Cookies:     cookies,
		Navigator:   nav,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}
	a.services = services
	return nil
}

// close persists the session cookies, or drops them once the session is gone.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.store != nil && a.services.API != nil {
		if a.expired.Load() || !a.services.API.HasSession() {
			if err := a.store.Clear(); err != nil {
				errs = append(errs, fmt.Errorf("clear cookie file: %w", err))
			}
		} else if err := a.store.Save(a.cfg.API.BaseURL, a.services.API.Cookies()); err != nil {
			errs = append(errs, fmt.Errorf("save cookie file: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.WarnContext(ctx, "close redis failed", "error", err)
		}
		a.redis = nil
	}
	return errors.Join(errs...)
}

// require blocks until the initial identity load settles and checks roles.
// No roles means any logged-in user.
func (a *app) require(ctx context.Context, roles ...domainauth.Role) (*domainauth.Identity, error) {
	return a.services.Guard.Require(ctx, roles...)
}
