package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec

	// Membership lifecycle metrics
	LifecycleTransitionsTotal *prometheus.CounterVec
	PendingRequestsExpired    prometheus.Counter

	// Audit metrics
	AuditEventsTotal     *prometheus.CounterVec
	AuditEmitErrorsTotal prometheus.Counter

	// Membership cache metrics
	MembershipCacheHitsTotal   prometheus.Counter
	MembershipCacheMissesTotal prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewdesk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crewdesk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewdesk_authz_decisions_total",
				Help: "Authorization decisions by resource, action and outcome",
			},
			[]string{"resource", "action", "outcome"},
		),
		LifecycleTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewdesk_membership_transitions_total",
				Help: "Membership lifecycle transitions by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		PendingRequestsExpired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crewdesk_membership_pending_expired_total",
				Help: "Pending join requests expired by the sweeper",
			},
		),
		AuditEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewdesk_audit_events_total",
				Help: "Audit events emitted by action",
			},
			[]string{"action"},
		),
		AuditEmitErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crewdesk_audit_emit_errors_total",
				Help: "Audit events that failed to emit",
			},
		),
		MembershipCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crewdesk_membership_cache_hits_total",
				Help: "Membership snapshot cache hits",
			},
		),
		MembershipCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crewdesk_membership_cache_misses_total",
				Help: "Membership snapshot cache misses",
			},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crewdesk_db_connections_active",
				Help: "Active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crewdesk_db_connections_idle",
				Help: "Idle database connections",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthzDecisionsTotal,
		m.LifecycleTransitionsTotal,
		m.PendingRequestsExpired,
		m.AuditEventsTotal,
		m.AuditEmitErrorsTotal,
		m.MembershipCacheHitsTotal,
		m.MembershipCacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns an HTTP handler that serves the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDecision records an authorization decision outcome.
func (m *Metrics) ObserveDecision(resource, action string, allowed bool) {
	outcome := "allow"
	if !allowed {
		outcome = "deny"
	}
	m.AuthzDecisionsTotal.WithLabelValues(resource, action, outcome).Inc()
}

// ObserveTransition records a membership lifecycle operation outcome.
func (m *Metrics) ObserveTransition(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.LifecycleTransitionsTotal.WithLabelValues(operation, outcome).Inc()
}

// HTTPMiddleware instruments HTTP handlers with request metrics.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start).Seconds()
		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
