// Package config provides application configuration management.
//
// # Overview
//
// This package loads and validates configuration. Built-in defaults are
// overlaid first by an optional YAML file, then by CREWDESK_* environment
// variables, so deployments can mix a checked-in file with per-environment
// overrides.
//
// # Configuration Structure
//
// Server settings:
//
//	CREWDESK_HOST="0.0.0.0"
//	CREWDESK_PORT="8080"
//	CREWDESK_HEALTH_PORT="9090"
//	CREWDESK_READ_TIMEOUT="15s"
//	CREWDESK_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	CREWDESK_POSTGRES_URL="postgres://localhost/crewdesk"
//	CREWDESK_POSTGRES_MAX_CONNS="25"
//
// Rate limiting settings:
//
//	CREWDESK_RATE_LIMIT_ENABLED="true"
//	CREWDESK_REDIS_URL="redis://localhost:6379"
//	CREWDESK_RATE_LIMIT_PER_MINUTE="300"
//
// Lifecycle settings:
//
//	CREWDESK_PENDING_REQUEST_TTL="720h"
//	CREWDESK_EXPIRY_SCHEDULE="@hourly"
//	CREWDESK_MEMBERSHIP_CACHE_SIZE="4096"
//
// Observability settings:
//
//	CREWDESK_LOG_LEVEL="info"  # debug, info, warn, error
//	CREWDESK_METRICS_ENABLED="true"
//	CREWDESK_OTEL_ENABLED="true"
//	CREWDESK_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Database: %s\n", cfg.Database.URL)
//
// # Related Packages
//
//   - pkg/observability: Uses observability configuration
//   - pkg/membership: Uses lifecycle configuration
package config
