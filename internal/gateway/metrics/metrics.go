package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the gateway. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	TokenRefreshes         *prometheus.CounterVec
	ClaimFetches           *prometheus.CounterVec
	AuthorizationDecisions *prometheus.CounterVec
	UpstreamRequests       *prometheus.CounterVec
	UpstreamLatency        prometheus.Histogram
	SessionsPurged         prometheus.Counter
}

// New creates a private registry and registers all gateway metrics on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grantgate_token_refreshes_total",
			Help: "Access token refresh attempts by outcome",
		}, []string{"outcome"}),
		ClaimFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grantgate_claim_fetches_total",
			Help: "Userinfo role claim fetches by outcome",
		}, []string{"outcome"}),
		AuthorizationDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grantgate_authorization_decisions_total",
			Help: "Authorization gate decisions by result",
		}, []string{"result"}),
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "grantgate_upstream_requests_total",
			Help: "Privileged upstream calls by response status",
		}, []string{"status"}),
		UpstreamLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "grantgate_upstream_request_duration_seconds",
			Help:    "Latency of privileged upstream calls",
			Buckets: prometheus.DefBuckets,
		}),
		SessionsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "grantgate_sessions_purged_total",
			Help: "Expired sessions removed by housekeeping",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveClaimFetch(outcome string) {
	if m == nil {
		return
	}
	m.ClaimFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDecision(allowed bool) {
	if m == nil {
		return
	}
	result := "deny"
	if allowed {
		result = "allow"
	}
	m.AuthorizationDecisions.WithLabelValues(result).Inc()
}

// ObserveUpstream records a privileged call. status is 0 when no response arrived.
func (m *Metrics) ObserveUpstream(status int, took time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.UpstreamRequests.WithLabelValues(label).Inc()
	m.UpstreamLatency.Observe(took.Seconds())
}

func (m *Metrics) AddSessionsPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsPurged.Add(float64(n))
}
