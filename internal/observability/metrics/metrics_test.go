package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_EdgeDecisions(t *testing.T) {
	m := New()
	m.EdgeDecision(false, false)
	m.EdgeDecision(true, false)
	m.EdgeDecision(true, true)
	m.EdgeDecision(true, true)

	assert.InDelta(t, 1, testutil.ToFloat64(m.edgeDecisions.WithLabelValues(DecisionPublic)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.edgeDecisions.WithLabelValues(DecisionPass)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.edgeDecisions.WithLabelValues(DecisionRedirect)), 0)
}

func TestMetrics_Refresh(t *testing.T) {
	m := New()
	m.RefreshSettled(true, 4, 20*time.Millisecond)
	m.RefreshSettled(false, 0, time.Millisecond)
	m.RefreshRejected()

	assert.InDelta(t, 1, testutil.ToFloat64(m.refreshes.WithLabelValues(ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.refreshes.WithLabelValues(ResultFailure)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.refreshes.WithLabelValues(ResultRejected)), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.refreshWaiters))
}

func TestMetrics_StatsLookups(t *testing.T) {
	m := New()
	m.RecordStatsLookup("overview", true)
	m.RecordStatsLookup("overview", false)
	m.RecordStatsLookup("horaires", false)

	assert.InDelta(t, 1, testutil.ToFloat64(m.statsLookups.WithLabelValues("overview", ResultHit)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.statsLookups.WithLabelValues("horaires", ResultMiss)), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, http.StatusTemporaryRedirect, 5*time.Millisecond)
	m.ProxyError("")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ecole_http_requests_total{code="307",method="GET"} 1`)
	assert.Contains(t, string(body), `ecole_proxy_errors_total{class="unknown"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
