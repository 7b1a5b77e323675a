package tasks

import (
	"context"
	"strconv"
	"time"

	"github.com/crewdesk/crewdesk/pkg/audit"
	"github.com/crewdesk/crewdesk/pkg/authz"
	"github.com/crewdesk/crewdesk/pkg/membership"
	"github.com/crewdesk/crewdesk/pkg/observability"
)

// Service applies task operations behind the permission resolver.
type Service struct {
	store       Store
	memberships membership.Store
	resolver    *authz.Resolver
	audit       audit.Emitter
	logger      *observability.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewService creates the task service. audit and metrics may be nil.
func NewService(store Store, memberships membership.Store, resolver *authz.Resolver,
	emitter audit.Emitter, logger *observability.Logger, metrics *observability.Metrics) *Service {
	if emitter == nil {
		emitter = audit.NoopEmitter{}
	}
	return &Service{
		store:       store,
		memberships: memberships,
		resolver:    resolver,
		audit:       emitter,
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Create persists a new task. The creator must hold an approved membership
// in the task's organization.
func (s *Service) Create(ctx context.Context, actor authz.ActorContext, t *Task) (*Task, error) {
	if _, ok := actor.RoleIn(t.OrganizationID); !ok && !actor.IsPlatformSuperadmin() {
		s.observe("create", authz.Deny(authz.ReasonNoMembership))
		return nil, denied(authz.ReasonNoMembership, "user %d is not a member of organization %d", actor.UserID, t.OrganizationID)
	}
	t.CreatorID = actor.UserID
	if err := s.store.Create(ctx, t); err != nil {
		return nil, storeError(err)
	}
	return t, nil
}

// Get returns the task when the actor may view it.
func (s *Service) Get(ctx context.Context, actor authz.ActorContext, taskID int64) (*Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	decision := s.resolver.CanViewTask(actor, t.Context())
	s.observe("view", decision)
	if !decision.Allowed {
		return nil, denied(decision.Reason, "user %d may not view task %d", actor.UserID, taskID)
	}
	return t, nil
}

// Update edits the task's mutable fields.
func (s *Service) Update(ctx context.Context, actor authz.ActorContext, taskID int64, update TaskUpdate) (*Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.gate(ctx, actor, t, "edit", s.resolver.CanEditTask); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, taskID, update)
	if err != nil {
		return nil, storeError(err)
	}
	if updated == nil {
		return nil, notFound(taskID)
	}

	event := audit.NewEvent(actor.UserID, audit.ActionTaskEdit, audit.ResourceTypeTask,
		strconv.FormatInt(taskID, 10)).
		WithOrganization(t.OrganizationID).
		WithChange(
			map[string]any{"title": t.Title, "description": t.Description},
			map[string]any{"title": updated.Title, "description": updated.Description},
		)
	s.emit(ctx, event)
	return updated, nil
}

// Delete removes the task. Assignees may edit but not delete.
func (s *Service) Delete(ctx context.Context, actor authz.ActorContext, taskID int64) error {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.gate(ctx, actor, t, "delete", s.resolver.CanDeleteTask); err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, taskID)
	if err != nil {
		return storeError(err)
	}
	if !deleted {
		return notFound(taskID)
	}

	event := audit.NewEvent(actor.UserID, audit.ActionTaskDelete, audit.ResourceTypeTask,
		strconv.FormatInt(taskID, 10)).
		WithOrganization(t.OrganizationID).
		WithChange(map[string]any{"title": t.Title, "status": string(t.Status)}, nil)
	s.emit(ctx, event)
	return nil
}

// Complete marks the task completed under the same matrix as editing.
func (s *Service) Complete(ctx context.Context, actor authz.ActorContext, taskID int64) (*Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.gate(ctx, actor, t, "complete", s.resolver.CanMarkTaskCompleted); err != nil {
		return nil, err
	}

	completed, err := s.store.Complete(ctx, taskID, s.now().UTC())
	if err != nil {
		return nil, storeError(err)
	}
	if completed == nil {
		return nil, notFound(taskID)
	}

	event := audit.NewEvent(actor.UserID, audit.ActionTaskComplete, audit.ResourceTypeTask,
		strconv.FormatInt(taskID, 10)).
		WithOrganization(t.OrganizationID).
		WithChange(
			map[string]any{"status": string(t.Status)},
			map[string]any{"status": string(completed.Status)},
		)
	s.emit(ctx, event)
	return completed, nil
}

// Reassign changes the assignee. The new assignee must hold an approved
// membership in the task's organization; nil unassigns.
func (s *Service) Reassign(ctx context.Context, actor authz.ActorContext, taskID int64, assignee *int64) (*Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.gate(ctx, actor, t, "reassign", s.resolver.CanEditTask); err != nil {
		return nil, err
	}

	if assignee != nil {
		m, err := s.memberships.Get(ctx, *assignee, t.OrganizationID)
		if err != nil {
			return nil, storeError(err)
		}
		if !m.Approved() {
			return nil, &Error{Kind: KindInvalidAssignee,
				Message: "assignee " + strconv.FormatInt(*assignee, 10) + " is not a member of the task's organization"}
		}
	}

	updated, err := s.store.Reassign(ctx, taskID, assignee)
	if err != nil {
		return nil, storeError(err)
	}
	if updated == nil {
		return nil, notFound(taskID)
	}

	event := audit.NewEvent(actor.UserID, audit.ActionTaskReassign, audit.ResourceTypeTask,
		strconv.FormatInt(taskID, 10)).
		WithOrganization(t.OrganizationID).
		WithChange(assigneeState(t.AssignedTo), assigneeState(updated.AssignedTo))
	s.emit(ctx, event)
	return updated, nil
}

func (s *Service) load(ctx context.Context, taskID int64) (*Task, error) {
	t, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, storeError(err)
	}
	if t == nil {
		return nil, notFound(taskID)
	}
	return t, nil
}

// gate evaluates a predicate, records the decision and audits denials.
func (s *Service) gate(ctx context.Context, actor authz.ActorContext, t *Task, action string,
	predicate func(authz.ActorContext, authz.TaskContext) authz.Decision) error {
	decision := predicate(actor, t.Context())
	s.observe(action, decision)
	if decision.Allowed {
		return nil
	}
	event := audit.NewEvent(actor.UserID, audit.ActionAccessDenied, audit.ResourceTypeTask,
		strconv.FormatInt(t.ID, 10)).WithOrganization(t.OrganizationID)
	event.Reason = string(decision.Reason)
	s.emit(ctx, event)
	return denied(decision.Reason, "user %d may not %s task %d", actor.UserID, action, t.ID)
}

func (s *Service) observe(action string, decision authz.Decision) {
	if s.metrics != nil {
		s.metrics.ObserveDecision("task", action, decision.Allowed)
	}
}

func (s *Service) emit(ctx context.Context, event *audit.Event) {
	if err := s.audit.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WithError(err).WithField("action", string(event.Action)).Warn("audit emission failed")
	}
}

func assigneeState(assignee *int64) map[string]any {
	if assignee == nil {
		return map[string]any{"assigned_to": nil}
	}
	return map[string]any{"assigned_to": *assignee}
}
