package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/crewdesk/crewdesk/pkg/api"
	"github.com/crewdesk/crewdesk/pkg/audit"
	"github.com/crewdesk/crewdesk/pkg/authz"
	"github.com/crewdesk/crewdesk/pkg/config"
	"github.com/crewdesk/crewdesk/pkg/membership"
	"github.com/crewdesk/crewdesk/pkg/middleware"
	"github.com/crewdesk/crewdesk/pkg/observability"
	"github.com/crewdesk/crewdesk/pkg/recall"
	"github.com/crewdesk/crewdesk/pkg/roles"
	"github.com/crewdesk/crewdesk/pkg/tasks"
	"github.com/crewdesk/crewdesk/pkg/users"
)

// Rate limit windows are per minute; the configured limit is requests per
// window.
const rateLimitWindow = time.Minute

func main() {
	// Bootstrap logger for startup, before config is loaded.
	boot := logrus.New()
	boot.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		boot.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	metrics := observability.NewMetrics(nil)

	// Database
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		boot.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	if err := db.Ping(); err != nil {
		boot.Fatalf("Failed to connect to database: %v", err)
	}
	if err := runMigrations(db); err != nil {
		boot.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("database ready")

	// Redis (rate limiting only)
	var redisClient *redis.Client
	if cfg.Redis.RateLimitEnabled {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			boot.Fatalf("Failed to parse redis URL: %v", err)
		}
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		opts.DB = cfg.Redis.DB
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			boot.Fatalf("Failed to connect to redis: %v", err)
		}
		logger.Info("redis ready")
	}

	// Tracing
	otelProviders, err := observability.InitOTel(context.Background(), observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		boot.Fatalf("Failed to initialize tracing: %v", err)
	}

	// Domain wiring
	registry := roles.NewRegistry()
	resolver := authz.NewResolver(registry)

	userStore := users.NewPostgresStore(db)
	membershipStore := membership.NewPostgresStore(db)
	taskStore := tasks.NewPostgresStore(db)
	messageStore := recall.NewPostgresMessageStore(db)

	emitter := audit.NewBestEffort(
		audit.NewMultiEmitter(
			audit.NewLogEmitter(logger),
			audit.NewPostgresEmitter(db),
		),
		logger, metrics,
	)

	lifecycle := membership.NewLifecycle(membership.LifecycleConfig{
		Store:       membershipStore,
		Roles:       registry,
		SystemRoles: userStore,
		Audit:       emitter,
		Logger:      logger,
		Metrics:     metrics,
		Cache: membership.NewCache(cfg.Lifecycle.MembershipCacheSize,
			cfg.Lifecycle.MembershipCacheTTL, metrics),
		PendingTTL: cfg.Lifecycle.PendingRequestTTL,
	})

	userService := users.NewService(userStore, membershipStore, resolver, emitter, logger, metrics)
	taskService := tasks.NewService(taskStore, membershipStore, resolver, emitter, logger, metrics)
	messageService := recall.NewService(messageStore, emitter, logger, metrics)

	actorMW := middleware.NewActorMiddleware(userService, lifecycle, logger)
	var limiter *middleware.RateLimiter
	if redisClient != nil {
		limiter = middleware.NewRateLimiter(redisClient, cfg.Redis.RateLimitPerMinute,
			rateLimitWindow, logger)
	}

	handler := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Metrics:        metrics,
		Actor:          actorMW,
		RateLimiter:    limiter,
		Memberships:    api.NewMembershipHandlers(lifecycle, registry),
		Users:          api.NewUserHandlers(userService),
		Tasks:          api.NewTaskHandlers(taskService),
		Messages:       api.NewMessageHandlers(messageService),
		TracingEnabled: cfg.Observability.OTelEnabled,
	})

	// Expiry sweep for stale pending requests.
	sweeper := cron.New()
	if cfg.Lifecycle.PendingRequestTTL > 0 {
		_, err := sweeper.AddFunc(cfg.Lifecycle.ExpirySchedule, func() {
			expired, err := lifecycle.ExpireStalePending(context.Background())
			if err != nil {
				logger.WithFields(map[string]interface{}{"error": err.Error()}).
					Error("pending request expiry sweep failed")
				return
			}
			if expired > 0 {
				logger.WithFields(map[string]interface{}{"expired": expired}).
					Info("expired stale pending requests")
			}
		})
		if err != nil {
			boot.Fatalf("Failed to schedule expiry sweep: %v", err)
		}
		sweeper.Start()
	}

	// Health and metrics server on a separate port.
	health := observability.NewHealthChecker(db, redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}
	go func() {
		logger.Infof("health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("health server failed: %v", err)
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		sweeper.Stop()
		return nil
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return db.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}
	if otelProviders != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	// Watch the config file for edits. Most settings need a restart; the
	// watcher validates and logs so bad edits are caught before one.
	if path := os.Getenv("CREWDESK_CONFIG_FILE"); path != "" {
		watcher, err := config.NewWatcher(path, logger, func(updated *config.Config) {
			logger.Info("configuration file reloaded, restart to apply server settings")
		})
		if err != nil {
			logger.Errorf("failed to watch config file: %v", err)
		} else {
			watcher.Start()
			shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
				return watcher.Stop()
			})
		}
	}

	go func() {
		logger.Infof("crewdesk listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			boot.Fatalf("Server failed: %v", err)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.Errorf("shutdown finished with errors: %v", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// runMigrations applies the idempotent schema for every package in
// dependency order: users first (memberships and tasks reference it).
func runMigrations(db *sql.DB) error {
	for _, migration := range []string{
		users.Migration(),
		membership.Migration(),
		tasks.Migration(),
		recall.Migration(),
		audit.Migration(),
	} {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}
