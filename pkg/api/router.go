package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/crewdesk/crewdesk/pkg/httputil"
	"github.com/crewdesk/crewdesk/pkg/middleware"
	"github.com/crewdesk/crewdesk/pkg/observability"
)

const defaultMaxBodyBytes = 1 << 20 // 1MB

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	Logger  *observability.Logger
	Metrics *observability.Metrics

	Actor       *middleware.ActorMiddleware
	RateLimiter *middleware.RateLimiter

	Memberships *MembershipHandlers
	Users       *UserHandlers
	Tasks       *TaskHandlers
	Messages    *MessageHandlers

	// TracingEnabled wraps the router in otelhttp instrumentation.
	TracingEnabled bool

	// MaxBodyBytes limits request body size. Zero uses the default 1MB.
	MaxBodyBytes int64
}

// NewRouter assembles the API router with its full middleware chain:
// request IDs, logging, panic recovery, metrics, body limits, actor
// resolution, and rate limiting, in that order.
func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()

	cfg.Memberships.RegisterRoutes(router)
	cfg.Users.RegisterRoutes(router)
	cfg.Tasks.RegisterRoutes(router)
	cfg.Messages.RegisterRoutes(router)

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	middlewares := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(cfg.Logger),
		httputil.RecoveryMiddleware(cfg.Logger),
		cfg.Metrics.HTTPMiddleware,
		httputil.MaxBytesMiddleware(maxBody),
		cfg.Actor.Handler,
	}
	if cfg.RateLimiter != nil {
		middlewares = append(middlewares, cfg.RateLimiter.Handler)
	}

	handler := httputil.Chain(middlewares...)(router)
	if cfg.TracingEnabled {
		handler = otelhttp.NewHandler(handler, "crewdesk")
	}
	return handler
}
