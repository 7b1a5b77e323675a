// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, health checks, and graceful shutdown for Crewdesk.
//
// # Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("org_id", orgID).Info("membership approved")
//
// # Metrics
//
// NewMetrics registers counters and histograms for authorization decisions,
// membership lifecycle transitions, audit emission, and HTTP traffic:
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.AuthzDecisionsTotal.WithLabelValues("task", "edit", "deny").Inc()
//
// # Tracing
//
// InitOTel configures an OTLP gRPC trace exporter; wrap the router with
// otelhttp at the server layer.
//
// # Related Packages
//
//   - pkg/config: observability settings
//   - pkg/httputil: request logging middleware
package observability
