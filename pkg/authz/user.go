package authz

import (
	"github.com/crewdesk/crewdesk/pkg/roles"
)

// effectiveRank resolves the actor's rank relative to the target's
// organization. Platform superadmins act at top rank everywhere; everyone
// else needs an approved membership in the target's organization.
func (r *Resolver) effectiveRank(actor ActorContext, orgID *int64) (roles.Rank, Decision) {
	if actor.IsPlatformSuperadmin() {
		return roles.RankSuperadmin, Allow()
	}
	if orgID == nil {
		return 0, Deny(ReasonDifferentOrganization)
	}
	role, ok := actor.RoleIn(*orgID)
	if !ok {
		return 0, Deny(ReasonDifferentOrganization)
	}
	rank, ok := r.registry.Rank(role)
	if !ok {
		return 0, Deny(ReasonRoleTooLow)
	}
	return rank, Allow()
}

// tierAllows encodes the account management matrix: superadmins manage
// admins and members, admins manage members only. Peers and superiors are
// never manageable.
func tierAllows(actorRank, targetRank roles.Rank) bool {
	switch actorRank {
	case roles.RankSuperadmin:
		return targetRank == roles.RankAdmin || targetRank == roles.RankMember
	case roles.RankAdmin:
		return targetRank == roles.RankMember
	default:
		return false
	}
}

// CanEditUser reports whether the actor may edit the target user account.
// Users always edit themselves; otherwise the account management matrix
// applies within the target's organization.
func (r *Resolver) CanEditUser(actor ActorContext, target UserContext) Decision {
	if actor.UserID == target.ID {
		return Allow()
	}
	actorRank, decision := r.effectiveRank(actor, target.OrganizationID)
	if !decision.Allowed {
		return decision
	}
	targetRank, ok := r.registry.Rank(target.Role)
	if !ok {
		targetRank = roles.RankMember
	}
	if tierAllows(actorRank, targetRank) {
		return Allow()
	}
	return Deny(ReasonRoleTooLow)
}

// CanChangeUserRole reports whether the actor may change the target's role
// within their organization. Only top rank qualifies; admins never change
// roles, and nobody changes their own through this path.
func (r *Resolver) CanChangeUserRole(actor ActorContext, target UserContext) Decision {
	if actor.UserID == target.ID {
		return Deny(ReasonSelfActionForbidden)
	}
	actorRank, decision := r.effectiveRank(actor, target.OrganizationID)
	if !decision.Allowed {
		return decision
	}
	if actorRank != roles.RankSuperadmin {
		return Deny(ReasonRoleTooLow)
	}
	return Allow()
}

// CanDeleteUser reports whether the actor may soft-delete the target
// account. The edit matrix applies, and self-deletion through this path is
// always forbidden.
func (r *Resolver) CanDeleteUser(actor ActorContext, target UserContext) Decision {
	if actor.UserID == target.ID {
		return Deny(ReasonSelfActionForbidden)
	}
	actorRank, decision := r.effectiveRank(actor, target.OrganizationID)
	if !decision.Allowed {
		return decision
	}
	targetRank, ok := r.registry.Rank(target.Role)
	if !ok {
		targetRank = roles.RankMember
	}
	if tierAllows(actorRank, targetRank) {
		return Allow()
	}
	return Deny(ReasonRoleTooLow)
}
