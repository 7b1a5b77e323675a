package membership

import (
	"time"

	"github.com/crewdesk/crewdesk/pkg/roles"
)

// Status is the lifecycle state of a membership row.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Membership is the unique (user, organization) relationship record.
type Membership struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	OrganizationID int64     `json:"organization_id"`
	Role           roles.ID  `json:"role"`
	Status         Status    `json:"status"`
	InvitedBy      *int64    `json:"invited_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Approved reports whether the membership is in the approved state.
func (m *Membership) Approved() bool {
	return m != nil && m.Status == StatusApproved
}

// Pending reports whether the membership is awaiting a decision.
func (m *Membership) Pending() bool {
	return m != nil && m.Status == StatusPending
}

// Decision is the outcome chosen when processing a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Valid reports whether the decision is one of the two known outcomes.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Organization is the tenant a membership belongs to.
type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
