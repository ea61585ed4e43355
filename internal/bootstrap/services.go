package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecoledesexcellents/ecole-ui/config"
	"github.com/ecoledesexcellents/ecole-ui/internal/adapters/apiclient"
	"github.com/ecoledesexcellents/ecole-ui/internal/adapters/localcache"
	rediscache "github.com/ecoledesexcellents/ecole-ui/internal/adapters/redis"
	"github.com/ecoledesexcellents/ecole-ui/internal/observability/metrics"
	"github.com/ecoledesexcellents/ecole-ui/internal/ports"
	"github.com/ecoledesexcellents/ecole-ui/internal/service"
)

// ServiceContainer holds the session core and the resource services of one process.
type ServiceContainer struct {
	API        *apiclient.Client
	Sessions   *service.SessionService
	Guard      *service.RouteGuard
	Cours      *service.CoursService
	Members    *service.MemberService
	Promotions *service.PromotionService
	Horaires   *service.HoraireService
	Stats      *service.StatsService
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient

	// Cookies restores a saved session before the first identity load.
	Cookies []*http.Cookie

	// Navigator receives the login path when the session cannot be repaired.
	Navigator ports.Navigator

	// Transport overrides the client transport (tests, proxies).
	Transport http.RoundTripper

	// Metrics is optional.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewAPIClient builds the backend client from configuration.
func NewAPIClient(deps *ServiceDeps) (*apiclient.Client, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps missing AppConfig")
	}
	cfg := deps.Config

	var observer apiclient.RefreshObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		Transport:  deps.Transport,
		CookieName: cfg.Session.CookieName,
		Refresh: apiclient.RefreshOptions{
			Timeout:    cfg.API.RefreshTimeout,
			QueueLimit: cfg.API.RefreshQueueLimit,
			LoginPath:  cfg.Session.LoginPath,
			Navigator:  deps.Navigator,
			Observer:   observer,
		},
		Logger: deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	if len(deps.Cookies) > 0 {
		client.SetCookies(deps.Cookies)
	}
	return client, nil
}

// NewCache returns the statistics cache selected by configuration, or nil
// when caching is disabled.
//
//nolint:ireturn // the backend is picked at runtime.
func NewCache(cfg config.CacheConfig, redisClient redis.UniversalClient, logger *slog.Logger) ports.Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Backend == config.CacheBackendRedis {
		if redisClient != nil {
			return rediscache.NewCache(redisClient)
		}
		if logger != nil {
			logger.Warn("redis cache requested without a redis client; using in-memory cache")
		}
	}
	return localcache.New(localcache.Config{Capacity: cfg.LocalCapacity})
}

// NewServices wires the API client, the session store, the route guard and
// the resource services. The session store starts its initial identity load
// immediately, bound to ctx.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	client, err := NewAPIClient(deps)
	if err != nil {
		return ServiceContainer{}, err
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions := service.NewSessionService(ctx, service.SessionServiceOptions{
		Auth:             client,
		PropagationDelay: propagationDelay(cfg.API),
		Logger:           logger,
	})

	var statsMetrics service.StatsCacheMetrics
	if deps.Metrics != nil {
		statsMetrics = deps.Metrics
	}
	stats := service.NewStatsService(service.StatsServiceOptions{
		Backend: client,
		Cache:   NewCache(cfg.Cache, deps.RedisClient, logger),
		Viewer:  sessions,
		TTL:     cfg.Cache.StatsTTL,
		Metrics: statsMetrics,
		Logger:  logger,
	})

	academicOpts := service.AcademicServiceOptions{Backend: client, Stats: stats, Logger: logger}

	return ServiceContainer{
		API:      client,
		Sessions: sessions,
		Guard: service.NewRouteGuard(service.RouteGuardOptions{
			Sessions:  sessions,
			LoginPath: cfg.Session.LoginPath,
		}),
		Cours:      service.NewCoursService(academicOpts),
		Members:    service.NewMemberService(academicOpts),
		Promotions: service.NewPromotionService(academicOpts),
		Horaires:   service.NewHoraireService(academicOpts),
		Stats:      stats,
	}, nil
}

// propagationDelay maps the configured delay onto the session option, where
// zero means the default and a negative value disables the wait.
func propagationDelay(cfg config.APIConfig) time.Duration {
	if cfg.CookiePropagationDelay <= 0 {
		return -1
	}
	return cfg.CookiePropagationDelay
}
