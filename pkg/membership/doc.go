// Package membership implements the organization membership lifecycle.
//
// A membership is the unique (user, organization) pair carrying a role and a
// status. The lifecycle drives the state machine between those statuses:
//
//	NONE -> PENDING -> APPROVED | REJECTED
//
// REJECTED may return to PENDING through a new join request. APPROVED is
// terminal except for role changes (status unchanged) and removal (back to
// NONE). Every mutating operation runs inside a single store transaction and
// emits an audit event after commit.
package membership
