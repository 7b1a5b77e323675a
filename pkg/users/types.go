package users

import (
	"time"

	"github.com/crewdesk/crewdesk/pkg/roles"
)

// User is a platform account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`

	// SystemRole is the platform-level role, if any. Regular users have none.
	SystemRole *roles.ID `json:"system_role,omitempty"`

	// CurrentOrganizationID is the active organization. It always references
	// an approved membership; the membership lifecycle keeps it consistent.
	CurrentOrganizationID *int64 `json:"current_organization_id,omitempty"`

	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Deleted reports whether the account has been soft-deleted.
func (u *User) Deleted() bool {
	return u != nil && u.DeletedAt != nil
}

// ProfileUpdate carries the editable profile fields. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}
