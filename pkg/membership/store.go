package membership

import (
	"context"
	"time"

	"github.com/crewdesk/crewdesk/pkg/roles"
)

// Store is the persistence contract for membership rows. The unique
// (user_id, organization_id) pair is the enforcement mechanism for the
// one-row-per-pair invariant; mutations go through WithTx so every
// read-validate-write sequence is atomic.
type Store interface {
	// Get returns the membership for the pair, or (nil, nil) when absent.
	Get(ctx context.Context, userID, orgID int64) (*Membership, error)

	// ListApproved returns every approved membership held by the user.
	ListApproved(ctx context.Context, userID int64) ([]*Membership, error)

	// WithTx runs fn inside a single transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the operations available inside a membership transaction.
type Tx interface {
	// Get returns the membership for the pair, or (nil, nil) when absent.
	Get(ctx context.Context, userID, orgID int64) (*Membership, error)

	// GetForUpdate is Get with a row lock, serializing concurrent
	// transitions on the same pair.
	GetForUpdate(ctx context.Context, userID, orgID int64) (*Membership, error)

	// Upsert inserts or overwrites the row for (m.UserID, m.OrganizationID)
	// and fills in ID, CreatedAt and UpdatedAt.
	Upsert(ctx context.Context, m *Membership) error

	// Delete removes the row for the pair.
	Delete(ctx context.Context, userID, orgID int64) error

	// CurrentOrganization returns the user's active organization, or nil.
	CurrentOrganization(ctx context.Context, userID int64) (*int64, error)

	// SetCurrentOrganization sets or clears the user's active organization.
	SetCurrentOrganization(ctx context.Context, userID int64, orgID *int64) error

	// CountApprovedWithRole counts approved members holding the role in
	// the organization.
	CountApprovedWithRole(ctx context.Context, orgID int64, role roles.ID) (int, error)

	// ExpirePending rejects every pending row last updated before the
	// cutoff and returns the affected pairs.
	ExpirePending(ctx context.Context, cutoff time.Time) ([]ExpiredRequest, error)
}

// ExpiredRequest identifies a pending request rejected by the expiry sweep.
type ExpiredRequest struct {
	UserID         int64
	OrganizationID int64
	Role           roles.ID
}
