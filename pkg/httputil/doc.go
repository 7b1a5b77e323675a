// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helper functions for JSON encoding/decoding, error responses,
// parameter parsing, validation, and common HTTP middleware patterns.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteNoContent(w)
//
// Error responses:
//
//	httputil.WriteBadRequest(w, "invalid input")
//	httputil.WriteNotFoundError(w, "task not found")
//	httputil.WriteConflict(w, "request already pending")
//
// Authorization denials carry a stable reason code, and storage failures are
// marked retryable so clients can distinguish them from hard errors:
//
//	httputil.WriteDenied(w, "may not edit task", "not_creator_not_assignee")
//	httputil.WriteRetryable(w, "store unavailable")
//
// # Request Parsing
//
// JSON parsing:
//
//	var req joinRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Path parameters:
//
//	orgID, ok := httputil.ParsePathInt64OrError(w, r, "id")
//	if !ok {
//		return
//	}
//
// # Validation
//
//	if !httputil.RequireNonEmpty(w, req.Username, "username") {
//		return
//	}
//	if !httputil.RequirePositive(w, req.OrganizationID, "organization_id") {
//		return
//	}
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1*1024*1024), // 1MB
//	)
//
// # Related Packages
//
//   - pkg/middleware: Actor resolution and rate limiting middleware
package httputil
