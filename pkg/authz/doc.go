// Package authz resolves per-resource permissions for Crewdesk.
//
// # Overview
//
// Every predicate is a pure function of two inputs: an ActorContext (who is
// acting) and a resource context (what is being acted upon). Predicates never
// reach into ambient state or perform I/O, so each rule is independently
// testable. A denial is a normal return value carrying a stable reason code,
// never an error.
//
// # Decision Shape
//
//	decision := resolver.CanEditTask(actor, task)
//	if !decision.Allowed {
//		// decision.Reason is a stable code such as "role_too_low"
//	}
//
// # Authorization rules
//
// Tasks:
//   - View: any actor holding at least one approved membership
//   - Edit/Complete: platform superadmin, creator, assignee, or a
//     same-organization admin (or better)
//   - Delete: platform superadmin, creator, or a same-organization admin
//
// User accounts:
//   - Edit: self, admin over a member, or superadmin over admin/member,
//     always within the same organization
//   - ChangeRole: organization superadmin only; admins never change roles
//   - Delete (soft): admin may remove a member, superadmin may remove an
//     admin or member; never a peer, a superior, or yourself
//
// Organization scoping is mandatory for every rank-based grant. Only the
// platform-level superadmin system role bypasses it.
//
// # Related Packages
//
//   - pkg/roles: role ranks consumed by the predicates
//   - pkg/membership: the lifecycle that produces membership facts
package authz
