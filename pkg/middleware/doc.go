// Package middleware provides HTTP middleware for actor resolution and rate limiting.
//
// # Overview
//
// This package sits between the router's generic plumbing (request IDs,
// logging, recovery in pkg/httputil) and the domain handlers. It resolves
// the acting user into an authz.ActorContext and enforces per-user request
// quotas.
//
// # Actor Resolution
//
// The edge proxy authenticates callers and forwards the user ID in the
// X-Crewdesk-User header. ActorMiddleware loads the account and its approved
// memberships, builds the authz.ActorContext, and stores it in the request
// context:
//
//	actorMW := middleware.NewActorMiddleware(userService, lifecycle, logger)
//	router.Use(actorMW.Handler)
//
// Handlers read it back with middleware.GetActor(r.Context()).
//
// Requests with a missing, malformed, or unknown user ID are rejected with
// 401. Identity store failures return 503 with a retryable error body.
//
// # Rate Limiting
//
// RateLimiter is a Redis-backed fixed-window limiter keyed per user (per
// client IP before actor resolution). Counts are shared across instances;
// Redis errors fail open:
//
//	limiter := middleware.NewRateLimiter(redisClient, 300, time.Minute, logger)
//	router.Use(limiter.Handler)
//
// # Related Packages
//
//   - pkg/httputil: Request ID, logging, and recovery middleware
//   - pkg/authz: The ActorContext consumed by authorization predicates
package middleware
