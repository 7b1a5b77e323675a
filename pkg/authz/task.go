package authz

import (
	"github.com/crewdesk/crewdesk/pkg/roles"
)

// Resolver evaluates permission predicates against the role registry.
type Resolver struct {
	registry *roles.Registry
}

// NewResolver creates a resolver backed by the given role registry.
func NewResolver(registry *roles.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// CanViewTask reports whether the actor may view a task. Any authenticated
// actor with at least one approved membership may view; list filtering by
// organization is the caller's responsibility.
func (r *Resolver) CanViewTask(actor ActorContext, task TaskContext) Decision {
	if actor.IsPlatformSuperadmin() {
		return Allow()
	}
	if !actor.HasAnyMembership() {
		return Deny(ReasonNoMembership)
	}
	return Allow()
}

// CanEditTask reports whether the actor may edit a task: platform
// superadmin, the creator, the assignee, or a same-organization admin.
func (r *Resolver) CanEditTask(actor ActorContext, task TaskContext) Decision {
	if actor.IsPlatformSuperadmin() {
		return Allow()
	}
	if actor.UserID == task.CreatorID {
		return Allow()
	}
	if task.AssignedTo != nil && actor.UserID == *task.AssignedTo {
		return Allow()
	}
	role, ok := actor.RoleIn(task.OrganizationID)
	if !ok {
		return Deny(ReasonDifferentOrganization)
	}
	if r.registry.IsAtLeast(role, roles.Admin) {
		return Allow()
	}
	return Deny(ReasonNotCreatorNotAssignee)
}

// CanDeleteTask reports whether the actor may delete a task: platform
// superadmin, the creator, or a same-organization admin. Assignees may edit
// but not delete.
func (r *Resolver) CanDeleteTask(actor ActorContext, task TaskContext) Decision {
	if actor.IsPlatformSuperadmin() {
		return Allow()
	}
	if actor.UserID == task.CreatorID {
		return Allow()
	}
	role, ok := actor.RoleIn(task.OrganizationID)
	if !ok {
		return Deny(ReasonDifferentOrganization)
	}
	if r.registry.IsAtLeast(role, roles.Admin) {
		return Allow()
	}
	return Deny(ReasonRoleTooLow)
}

// CanMarkTaskCompleted follows the same matrix as CanEditTask.
func (r *Resolver) CanMarkTaskCompleted(actor ActorContext, task TaskContext) Decision {
	return r.CanEditTask(actor, task)
}
