package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action identifies the state-changing operation that produced an event.
type Action string

const (
	// Membership lifecycle
	ActionMembershipRequest    Action = "membership.request"
	ActionMembershipInvite     Action = "membership.invite"
	ActionMembershipApprove    Action = "membership.approve"
	ActionMembershipReject     Action = "membership.reject"
	ActionMembershipRoleChange Action = "membership.role_change"
	ActionMembershipRemove     Action = "membership.remove"
	ActionMembershipLeave      Action = "membership.leave"
	ActionMembershipExpire     Action = "membership.expire"

	// User accounts
	ActionUserSwitchOrganization Action = "user.switch_organization"
	ActionUserEdit               Action = "user.edit"
	ActionUserSoftDelete         Action = "user.soft_delete"

	// Tasks
	ActionTaskEdit     Action = "task.edit"
	ActionTaskDelete   Action = "task.delete"
	ActionTaskComplete Action = "task.complete"
	ActionTaskReassign Action = "task.reassign"

	// Messaging
	ActionMessageRecall Action = "message.recall"

	// Authorization
	ActionAccessDenied Action = "authz.access_denied"
)

// ResourceType identifies the kind of resource an event refers to.
type ResourceType string

const (
	ResourceTypeMembership   ResourceType = "membership"
	ResourceTypeUser         ResourceType = "user"
	ResourceTypeTask         ResourceType = "task"
	ResourceTypeMessage      ResourceType = "message"
	ResourceTypeOrganization ResourceType = "organization"
)

// Event is a single append-only audit log entry.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	ActorID        int64        `json:"actor_id"`
	Action         Action       `json:"action"`
	ResourceType   ResourceType `json:"resource_type"`
	ResourceID     string       `json:"resource_id"`
	OrganizationID *int64       `json:"organization_id,omitempty"`

	// Before and After capture the resource state around the transition.
	Before map[string]any `json:"before,omitempty"`
	After  map[string]any `json:"after,omitempty"`

	RequestID string `json:"request_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// NewEvent builds an event with a fresh ID and UTC timestamp.
func NewEvent(actorID int64, action Action, resourceType ResourceType, resourceID string) *Event {
	return &Event{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithOrganization attaches the organization scope to the event.
func (e *Event) WithOrganization(orgID int64) *Event {
	e.OrganizationID = &orgID
	return e
}

// WithChange attaches before/after state snapshots.
func (e *Event) WithChange(before, after map[string]any) *Event {
	e.Before = before
	e.After = after
	return e
}

// ToJSON converts the event to JSON.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
