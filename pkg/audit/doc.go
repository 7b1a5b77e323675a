// Package audit produces append-only audit events for every state-changing
// operation in the Crewdesk engine.
//
// # Overview
//
// Emission is best-effort relative to the main transaction: a failed emit is
// logged and counted, never surfaced to the caller, and never rolls back an
// authorization decision. The Emitter interface keeps the engine decoupled
// from the sink; the repository ships a PostgreSQL sink, a structured-log
// sink, and a fan-out combinator.
//
// # Usage Example
//
//	emitter := audit.NewBestEffort(
//		audit.NewMultiEmitter(
//			audit.NewPostgresEmitter(db),
//			audit.NewLogEmitter(logger),
//		),
//		logger, metrics,
//	)
//
//	event := audit.NewEvent(actorID, audit.ActionMembershipApprove, audit.ResourceTypeMembership, resourceID)
//	event.Before = map[string]any{"status": "pending"}
//	event.After = map[string]any{"status": "approved"}
//	emitter.Emit(ctx, event)
//
// # Related Packages
//
//   - pkg/membership: emits on every lifecycle transition
//   - pkg/tasks, pkg/users, pkg/recall: emit on resource mutations
package audit
