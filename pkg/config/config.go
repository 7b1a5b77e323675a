package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/crewdesk/crewdesk/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (rate limiting)
	Redis RedisConfig `yaml:"redis"`

	// Lifecycle configuration
	Lifecycle LifecycleConfig `yaml:"lifecycle"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig holds Redis settings for distributed rate limiting
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	RateLimitEnabled   bool `yaml:"rate_limit_enabled"`
	RateLimitPerMinute int  `yaml:"rate_limit_per_minute"`
}

// LifecycleConfig holds membership lifecycle settings
type LifecycleConfig struct {
	// PendingRequestTTL is how long a join request may sit undecided before
	// the expiry sweep rejects it. Zero disables expiry.
	PendingRequestTTL time.Duration `yaml:"pending_request_ttl"`

	// ExpirySchedule is the cron expression for the expiry sweep.
	ExpirySchedule string `yaml:"expiry_schedule"`

	MembershipCacheSize int           `yaml:"membership_cache_size"`
	MembershipCacheTTL  time.Duration `yaml:"membership_cache_ttl"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging. LogLevelName is the YAML-facing field; LogLevel is resolved
	// from it after loading.
	LogLevel     observability.LogLevel `yaml:"-"`
	LogLevelName string                 `yaml:"log_level"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"` // Use insecure gRPC connection
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			RateLimitEnabled:   false,
			RateLimitPerMinute: 300,
		},
		Lifecycle: LifecycleConfig{
			PendingRequestTTL:   30 * 24 * time.Hour,
			ExpirySchedule:      "@hourly",
			MembershipCacheSize: 4096,
			MembershipCacheTTL:  time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:           observability.InfoLevel,
			MetricsEnabled:     true,
			OTelEnabled:        false,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "crewdesk",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// LoadConfig loads configuration: defaults, then the YAML file named by
// CREWDESK_CONFIG_FILE (if any), then environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := getEnv("CREWDESK_CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile overlays the YAML file onto the config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.Observability.LogLevelName != "" {
		c.Observability.LogLevel = observability.ParseLogLevel(c.Observability.LogLevelName)
	}
	return nil
}

// loadEnv overlays CREWDESK_* environment variables onto the config.
func (c *Config) loadEnv() {
	c.Server.Host = getEnv("CREWDESK_HOST", c.Server.Host)
	c.Server.Port = getEnv("CREWDESK_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("CREWDESK_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("CREWDESK_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("CREWDESK_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("CREWDESK_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.HealthPort = getEnv("CREWDESK_HEALTH_PORT", c.Server.HealthPort)

	c.Database.URL = getEnv("CREWDESK_POSTGRES_URL", c.Database.URL)
	c.Database.MaxOpenConns = getEnvInt("CREWDESK_POSTGRES_MAX_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("CREWDESK_POSTGRES_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = getEnvDuration("CREWDESK_POSTGRES_CONN_LIFETIME", c.Database.ConnMaxLifetime)

	c.Redis.URL = getEnv("CREWDESK_REDIS_URL", c.Redis.URL)
	c.Redis.Password = getEnv("CREWDESK_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("CREWDESK_REDIS_DB", c.Redis.DB)
	c.Redis.RateLimitEnabled = getEnvBool("CREWDESK_RATE_LIMIT_ENABLED", c.Redis.RateLimitEnabled)
	c.Redis.RateLimitPerMinute = getEnvInt("CREWDESK_RATE_LIMIT_PER_MINUTE", c.Redis.RateLimitPerMinute)

	c.Lifecycle.PendingRequestTTL = getEnvDuration("CREWDESK_PENDING_REQUEST_TTL", c.Lifecycle.PendingRequestTTL)
	c.Lifecycle.ExpirySchedule = getEnv("CREWDESK_EXPIRY_SCHEDULE", c.Lifecycle.ExpirySchedule)
	c.Lifecycle.MembershipCacheSize = getEnvInt("CREWDESK_MEMBERSHIP_CACHE_SIZE", c.Lifecycle.MembershipCacheSize)
	c.Lifecycle.MembershipCacheTTL = getEnvDuration("CREWDESK_MEMBERSHIP_CACHE_TTL", c.Lifecycle.MembershipCacheTTL)

	if level := getEnv("CREWDESK_LOG_LEVEL", ""); level != "" {
		c.Observability.LogLevel = observability.ParseLogLevel(level)
	}
	c.Observability.MetricsEnabled = getEnvBool("CREWDESK_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("CREWDESK_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("CREWDESK_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("CREWDESK_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("CREWDESK_OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("CREWDESK_OTEL_INSECURE", c.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Redis.RateLimitEnabled {
		if c.Redis.URL == "" {
			return fmt.Errorf("redis URL is required when rate limiting is enabled")
		}
		if c.Redis.RateLimitPerMinute <= 0 {
			return fmt.Errorf("rate limit per minute must be positive")
		}
	}

	if c.Lifecycle.PendingRequestTTL < 0 {
		return fmt.Errorf("pending request TTL must not be negative")
	}
	if c.Lifecycle.MembershipCacheSize <= 0 {
		return fmt.Errorf("membership cache size must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
