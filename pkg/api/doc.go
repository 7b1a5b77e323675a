// Package api exposes the authorization and membership lifecycle engine
// over HTTP.
//
// # Overview
//
// Handlers are grouped per domain: MembershipHandlers for the lifecycle
// state machine, UserHandlers for account operations, TaskHandlers for
// task ownership operations, and MessageHandlers for message recall.
// NewRouter assembles them behind a shared middleware chain (request IDs,
// logging, recovery, metrics, actor resolution, rate limiting).
//
// # Error Mapping
//
// Domain errors are classified by kind and mapped to HTTP statuses in one
// place (writeServiceError):
//
//   - authorization denials: 403 with a stable reason code in the body
//   - missing resources and memberships: 404
//   - lifecycle conflicts (already member, already pending, already
//     recalled): 409
//   - storage failures: 503 with retryable=true
//
// # Routes
//
// Membership lifecycle:
//
//	POST   /orgs/{id}/join
//	POST   /orgs/{id}/invitations
//	POST   /orgs/{id}/requests/{user_id}
//	PUT    /orgs/{id}/members/{user_id}/role
//	DELETE /orgs/{id}/members/{user_id}
//	POST   /orgs/{id}/leave
//	GET    /users/me/memberships
//	POST   /users/me/organization
//
// Users, tasks, and messages:
//
//	GET/PATCH/DELETE /users/{id}
//	POST /tasks, GET/PATCH/DELETE /tasks/{id}
//	POST /tasks/{id}/complete, PUT /tasks/{id}/assignee
//	GET /messages/{id}, POST /messages/{id}/recall
//
// # Related Packages
//
//   - pkg/middleware: Actor resolution and rate limiting
//   - pkg/httputil: Response helpers and generic middleware
package api
