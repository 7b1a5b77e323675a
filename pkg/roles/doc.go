// Package roles defines the fixed role hierarchy used across Crewdesk.
//
// # Overview
//
// Roles are ordered by rank: a lower rank number means a higher privilege
// level. The built-in set is superadmin (1) > admin (2) > member (3).
// Consumers never compare role names directly; every privilege check goes
// through Registry.IsAtLeast so adding a role is a registry change, not a
// code change across call sites.
//
// # Usage Example
//
//	reg := roles.NewRegistry()
//	if reg.IsAtLeast(actorRole, roles.Admin) {
//		// actor holds admin privileges or better
//	}
//
// # Related Packages
//
//   - pkg/authz: permission predicates built on role ranks
//   - pkg/membership: per-organization role assignments
package roles
