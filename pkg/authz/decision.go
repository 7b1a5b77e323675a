package authz

// Reason is a stable denial reason code. Callers render or log these codes;
// they are part of the API surface and must not change meaning.
type Reason string

const (
	// ReasonNoMembership: the actor holds no approved membership at all.
	ReasonNoMembership Reason = "no_membership"

	// ReasonNotCreatorNotAssignee: the actor is neither the task's creator
	// nor its assignee and holds no qualifying rank.
	ReasonNotCreatorNotAssignee Reason = "not_creator_not_assignee"

	// ReasonRoleTooLow: the actor's rank in the resource's organization is
	// insufficient for the action.
	ReasonRoleTooLow Reason = "role_too_low"

	// ReasonDifferentOrganization: the actor has no approved membership in
	// the resource's organization.
	ReasonDifferentOrganization Reason = "different_organization"

	// ReasonSelfActionForbidden: the action may not target the actor's own
	// account through this path.
	ReasonSelfActionForbidden Reason = "self_action_forbidden"
)

// Decision is the outcome of a permission predicate. Reason is empty when
// Allowed is true.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow is the positive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a negative decision with the given reason code.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
