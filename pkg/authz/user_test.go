package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crewdesk/crewdesk/pkg/roles"
)

func TestCanEditUser(t *testing.T) {
	r := NewResolver(roles.NewRegistry())
	orgID := int64(10)

	tests := []struct {
		name   string
		actor  ActorContext
		target UserContext
		want   bool
		reason Reason
	}{
		{
			name:   "self edit",
			actor:  actorWith(5, nil),
			target: UserContext{ID: 5, OrganizationID: &orgID, Role: roles.Member},
			want:   true,
		},
		{
			name:   "admin edits member same org",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Admin}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Member},
			want:   true,
		},
		{
			name:   "admin cannot edit admin peer",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Admin}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Admin},
			want:   false,
			reason: ReasonRoleTooLow,
		},
		{
			name:   "superadmin edits admin",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Superadmin}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Admin},
			want:   true,
		},
		{
			name:   "superadmin edits member",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Superadmin}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Member},
			want:   true,
		},
		{
			name:   "superadmin cannot edit superadmin peer",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Superadmin}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Superadmin},
			want:   false,
			reason: ReasonRoleTooLow,
		},
		{
			name:   "admin from another org denied",
			actor:  actorWith(5, map[int64]roles.ID{99: roles.Admin}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Member},
			want:   false,
			reason: ReasonDifferentOrganization,
		},
		{
			name:   "member cannot edit anyone else",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Member}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Member},
			want:   false,
			reason: ReasonRoleTooLow,
		},
		{
			name:   "target without org only editable by platform superadmin",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Admin}),
			target: UserContext{ID: 6, Role: roles.Member},
			want:   false,
			reason: ReasonDifferentOrganization,
		},
		{
			name:   "platform superadmin edits admin anywhere",
			actor:  platformSuperadmin(5),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Admin},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.CanEditUser(tt.actor, tt.target)
			assert.Equal(t, tt.want, d.Allowed)
			if !tt.want {
				assert.Equal(t, tt.reason, d.Reason)
			}
		})
	}
}

func TestCanChangeUserRole(t *testing.T) {
	r := NewResolver(roles.NewRegistry())
	orgID := int64(10)

	tests := []struct {
		name   string
		actor  ActorContext
		target UserContext
		want   bool
		reason Reason
	}{
		{
			name:   "org superadmin changes roles",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Superadmin}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Member},
			want:   true,
		},
		{
			name:   "admin never changes roles",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Admin}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Member},
			want:   false,
			reason: ReasonRoleTooLow,
		},
		{
			name:   "admin cannot change own role",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Admin}),
			target: UserContext{ID: 5, OrganizationID: &orgID, Role: roles.Admin},
			want:   false,
			reason: ReasonSelfActionForbidden,
		},
		{
			name:   "superadmin cannot change own role",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Superadmin}),
			target: UserContext{ID: 5, OrganizationID: &orgID, Role: roles.Superadmin},
			want:   false,
			reason: ReasonSelfActionForbidden,
		},
		{
			name:   "cross-org superadmin denied",
			actor:  actorWith(5, map[int64]roles.ID{99: roles.Superadmin}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Member},
			want:   false,
			reason: ReasonDifferentOrganization,
		},
		{
			name:   "platform superadmin changes roles anywhere",
			actor:  platformSuperadmin(5),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Admin},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.CanChangeUserRole(tt.actor, tt.target)
			assert.Equal(t, tt.want, d.Allowed)
			if !tt.want {
				assert.Equal(t, tt.reason, d.Reason)
			}
		})
	}
}

func TestCanDeleteUser(t *testing.T) {
	r := NewResolver(roles.NewRegistry())
	orgID := int64(10)

	tests := []struct {
		name   string
		actor  ActorContext
		target UserContext
		want   bool
		reason Reason
	}{
		{
			name:   "admin soft-deletes member",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Admin}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Member},
			want:   true,
		},
		{
			name:   "admin cannot soft-delete admin peer",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Admin}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Admin},
			want:   false,
			reason: ReasonRoleTooLow,
		},
		{
			name:   "superadmin soft-deletes admin",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Superadmin}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Admin},
			want:   true,
		},
		{
			name:   "member cannot soft-delete superior",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Member}),
			target: UserContext{ID: 6, OrganizationID: &orgID, Role: roles.Admin},
			want:   false,
			reason: ReasonRoleTooLow,
		},
		{
			name:   "self soft-delete forbidden even for superadmin",
			actor:  actorWith(5, map[int64]roles.ID{orgID: roles.Superadmin}),
			target: UserContext{ID: 5, OrganizationID: &orgID, Role: roles.Member},
			want:   false,
			reason: ReasonSelfActionForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.CanDeleteUser(tt.actor, tt.target)
			assert.Equal(t, tt.want, d.Allowed)
			if !tt.want {
				assert.Equal(t, tt.reason, d.Reason)
			}
		})
	}
}
