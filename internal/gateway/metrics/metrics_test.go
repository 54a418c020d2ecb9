package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.ObserveRefresh("success")
	m.ObserveRefresh("success")
	m.ObserveClaimFetch("unavailable")
	m.ObserveDecision(true)
	m.ObserveDecision(false)
	m.ObserveUpstream(200, 10*time.Millisecond)
	m.ObserveUpstream(0, time.Millisecond)
	m.AddSessionsPurged(3)

	require.Equal(t, float64(2), testutil.ToFloat64(m.TokenRefreshes.WithLabelValues("success")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ClaimFetches.WithLabelValues("unavailable")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.AuthorizationDecisions.WithLabelValues("deny")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("error")))
	require.Equal(t, float64(3), testutil.ToFloat64(m.SessionsPurged))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "grantgate_token_refreshes_total")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveRefresh("success")
		m.ObserveClaimFetch("ok")
		m.ObserveDecision(true)
		m.ObserveUpstream(500, time.Second)
		m.AddSessionsPurged(1)
	})
}
