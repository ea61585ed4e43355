package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
	"github.com/ecoledesexcellents/ecole-ui/internal/domain/model"
	"github.com/ecoledesexcellents/ecole-ui/internal/ports"
)

// Statistics endpoint names under /academique/stats/.
const (
	StatsOverview        = "overview"
	StatsEnrollmentTrend = "enrollment-trend"
	StatsCoordons        = "coordons"
	StatsEncadreurs      = "encadreurs"
	StatsHoraires        = "horaires"
)

const (
	statsKeyPrefix = "ecole:stats:"

	// DefaultStatsTTL bounds how stale cached statistics may be.
	DefaultStatsTTL = time.Minute
)

// StatsCacheMetrics records cache lookups made by StatsService.
type StatsCacheMetrics interface {
	RecordStatsLookup(endpoint string, hit bool)
}

// StatsViewer reports who is reading statistics. Cache entries are scoped to
// that identity; without one the cache is bypassed.
type StatsViewer interface {
	State() auth.SessionState
}

type noopStatsMetrics struct{}

func (noopStatsMetrics) RecordStatsLookup(string, bool) {}

// StatsServiceOptions groups dependencies for StatsService.
type StatsServiceOptions struct {
	Backend ports.Backend
	// Cache is optional; without it every call reaches the backend.
	Cache   ports.Cache
	Viewer  StatsViewer
	TTL     time.Duration
	Metrics StatsCacheMetrics
	Logger  *slog.Logger
}

// StatsService reads the dashboard statistics, caching responses for a short TTL.
type StatsService struct {
	backend ports.Backend
	cache   ports.Cache
	viewer  StatsViewer
	ttl     time.Duration
	metrics StatsCacheMetrics
	logger  *slog.Logger
}

var _ StatsInvalidator = (*StatsService)(nil)

// NewStatsService constructs a StatsService.
func NewStatsService(opts StatsServiceOptions) *StatsService {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	m := opts.Metrics
	if m == nil {
		m = noopStatsMetrics{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{
		backend: opts.Backend,
		cache:   opts.Cache,
		viewer:  opts.Viewer,
		ttl:     ttl,
		metrics: m,
		logger:  logger.With("component", "stats"),
	}
}

// Overview returns the headline counters.
func (s *StatsService) Overview(ctx context.Context) (model.Overview, error) {
	var out model.Overview
	err := s.fetch(ctx, StatsOverview, 0, &out)
	return out, err
}

// EnrollmentTrend returns the monthly evolution of students and courses.
func (s *StatsService) EnrollmentTrend(ctx context.Context) (model.EnrollmentTrend, error) {
	var out model.EnrollmentTrend
	err := s.fetch(ctx, StatsEnrollmentTrend, 0, &out)
	return out, err
}

// Coordons lists coordinators, optionally filtered by promotion (0 = all).
func (s *StatsService) Coordons(ctx context.Context, promotionID int) ([]model.ContactInfo, error) {
	var out []model.ContactInfo
	err := s.fetch(ctx, StatsCoordons, promotionID, &out)
	return out, err
}

// Encadreurs lists supervisors, optionally filtered by promotion (0 = all).
func (s *StatsService) Encadreurs(ctx context.Context, promotionID int) ([]model.ContactInfo, error) {
	var out []model.ContactInfo
	err := s.fetch(ctx, StatsEncadreurs, promotionID, &out)
	return out, err
}

// Horaires lists schedule entries, optionally filtered by promotion (0 = all).
func (s *StatsService) Horaires(ctx context.Context, promotionID int) ([]model.HoraireInfo, error) {
	var out []model.HoraireInfo
	err := s.fetch(ctx, StatsHoraires, promotionID, &out)
	return out, err
}

// Dashboard fetches every statistics endpoint concurrently. The first failure
// cancels the remaining requests.
func (s *StatsService) Dashboard(ctx context.Context, promotionID int) (*model.Dashboard, error) {
	var d model.Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.fetch(gctx, StatsOverview, 0, &d.Overview) })
	g.Go(func() error { return s.fetch(gctx, StatsEnrollmentTrend, 0, &d.Trend) })
	g.Go(func() error { return s.fetch(gctx, StatsCoordons, promotionID, &d.Coordons) })
	g.Go(func() error { return s.fetch(gctx, StatsEncadreurs, promotionID, &d.Encadreurs) })
	g.Go(func() error { return s.fetch(gctx, StatsHoraires, promotionID, &d.Horaires) })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Invalidate drops the current viewer's unfiltered entries. Filtered lists and
// other viewers' entries expire with the TTL.
func (s *StatsService) Invalidate(ctx context.Context) {
	scope, ok := s.viewerScope()
	if !ok {
		return
	}
	for _, name := range []string{StatsOverview, StatsEnrollmentTrend, StatsCoordons, StatsEncadreurs, StatsHoraires} {
		if _, err := s.cache.Delete(ctx, statsKey(scope, name, 0)); err != nil {
			s.logger.WarnContext(ctx, "stats cache invalidation failed", "endpoint", name, "error", err)
		}
	}
}

// viewerScope returns the key segment of the identity reading statistics.
// ok is false when there is no cache or nobody is logged in.
func (s *StatsService) viewerScope() (string, bool) {
	if s.cache == nil || s.viewer == nil {
		return "", false
	}
	id := s.viewer.State().Identity
	if id == nil {
		return "", false
	}
	return strconv.Itoa(id.ID) + ":" + string(id.Role), true
}

func statsKey(viewer, name string, promotionID int) string {
	scope := "all"
	if promotionID > 0 {
		scope = strconv.Itoa(promotionID)
	}
	return statsKeyPrefix + viewer + ":" + name + ":" + scope
}

func (s *StatsService) fetch(ctx context.Context, name string, promotionID int, dst any) error {
	viewer, cached := s.viewerScope()
	key := statsKey(viewer, name, promotionID)
	if cached && s.cachedInto(ctx, key, name, dst) {
		return nil
	}

	var query url.Values
	if promotionID > 0 {
		query = url.Values{"promotion_id": {strconv.Itoa(promotionID)}}
	}

	var raw json.RawMessage
	if err := s.backend.GetJSON(ctx, "/academique/stats/"+name+"/", query, &raw); err != nil {
		return fmt.Errorf("stats %s: %w", name, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("stats %s: decode: %w", name, err)
	}

	if cached {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "stats cache write failed", "key", key, "error", err)
		}
	}
	return nil
}

func (s *StatsService) cachedInto(ctx context.Context, key, name string, dst any) bool {
	b, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "stats cache read failed", "key", key, "error", err)
		s.metrics.RecordStatsLookup(name, false)
		return false
	}
	if b == nil {
		s.metrics.RecordStatsLookup(name, false)
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		s.logger.WarnContext(ctx, "stats cache entry unreadable", "key", key, "error", err)
		s.metrics.RecordStatsLookup(name, false)
		return false
	}
	s.metrics.RecordStatsLookup(name, true)
	return true
}
