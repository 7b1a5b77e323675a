package authz

import (
	"github.com/crewdesk/crewdesk/pkg/roles"
)

// ActorContext carries everything the predicates need to know about the
// acting user. Callers build it once at the request boundary; the resolver
// never loads additional state.
type ActorContext struct {
	// UserID is the authenticated user's ID.
	UserID int64

	// SystemRole is the platform-level role, if any. Regular users have none.
	SystemRole *roles.ID

	// CurrentOrganizationID is the user's active organization, if set.
	CurrentOrganizationID *int64

	// Memberships maps organization ID to the role held through an APPROVED
	// membership. Pending and rejected memberships are excluded.
	Memberships map[int64]roles.ID
}

// RoleIn returns the actor's approved role within the given organization.
func (a ActorContext) RoleIn(orgID int64) (roles.ID, bool) {
	role, ok := a.Memberships[orgID]
	return role, ok
}

// HasAnyMembership reports whether the actor holds at least one approved
// membership.
func (a ActorContext) HasAnyMembership() bool {
	return len(a.Memberships) > 0
}

// IsPlatformSuperadmin reports whether the actor holds the platform-level
// superadmin system role.
func (a ActorContext) IsPlatformSuperadmin() bool {
	return a.SystemRole != nil && *a.SystemRole == roles.Superadmin
}

// TaskContext is the ownership snapshot of a task being acted upon.
type TaskContext struct {
	ID             int64
	OrganizationID int64
	CreatorID      int64
	AssignedTo     *int64
}

// UserContext is the snapshot of a user account being acted upon. Role is
// the target's role within OrganizationID; a nil OrganizationID means the
// target has no organization affiliation.
type UserContext struct {
	ID             int64
	OrganizationID *int64
	Role           roles.ID
}
