package tasks

import (
	"time"

	"github.com/crewdesk/crewdesk/pkg/authz"
)

// Status is the completion state of a task.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
)

// Task belongs to exactly one organization. CreatorID is immutable after
// creation.
type Task struct {
	ID             int64      `json:"id"`
	OrganizationID int64      `json:"organization_id"`
	CreatorID      int64      `json:"creator_id"`
	AssignedTo     *int64     `json:"assigned_to,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         Status     `json:"status"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Context returns the ownership snapshot the permission resolver consumes.
func (t *Task) Context() authz.TaskContext {
	return authz.TaskContext{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		CreatorID:      t.CreatorID,
		AssignedTo:     t.AssignedTo,
	}
}

// TaskUpdate carries the editable task fields. Nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}
