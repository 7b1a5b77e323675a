package users

import (
	"context"
	"strconv"

	"github.com/crewdesk/crewdesk/pkg/audit"
	"github.com/crewdesk/crewdesk/pkg/authz"
	"github.com/crewdesk/crewdesk/pkg/membership"
	"github.com/crewdesk/crewdesk/pkg/observability"
)

// Service applies account operations behind the permission resolver. Target
// role and organization snapshots come from the membership store so the
// resolver stays a pure function of its two inputs.
type Service struct {
	store       Store
	memberships membership.Store
	resolver    *authz.Resolver
	audit       audit.Emitter
	logger      *observability.Logger
	metrics     *observability.Metrics
}

// NewService creates the user service. audit and metrics may be nil.
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
	}
}

// Get returns the user by ID.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if u == nil || u.Deleted() {
		return nil, notFound(id)
	}
	return u, nil
}

// UpdateProfile edits the target's profile on behalf of the actor.
func (s *Service) UpdateProfile(ctx context.Context, actor authz.ActorContext, targetID int64, update ProfileUpdate) (*User, error) {
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	targetCtx, err := s.targetContext(ctx, target)
	if err != nil {
		return nil, err
	}

	decision := s.resolver.CanEditUser(actor, targetCtx)
	s.observe("user", "edit", decision)
	if !decision.Allowed {
		s.emitDenied(ctx, actor.UserID, targetID, decision)
		return nil, denied(decision.Reason, "user %d may not edit user %d", actor.UserID, targetID)
	}

	updated, err := s.store.UpdateProfile(ctx, targetID, update)
	if err != nil {
		return nil, storeError(err)
	}
	if updated == nil {
		return nil, notFound(targetID)
	}

	event := audit.NewEvent(actor.UserID, audit.ActionUserEdit, audit.ResourceTypeUser,
		strconv.FormatInt(targetID, 10)).
		WithChange(
			map[string]any{"username": target.Username, "email": target.Email},
			map[string]any{"username": updated.Username, "email": updated.Email},
		)
	s.emit(ctx, event)
	return updated, nil
}

// SoftDelete logically removes the target account on behalf of the actor.
// Accounts are never hard-deleted.
func (s *Service) SoftDelete(ctx context.Context, actor authz.ActorContext, targetID int64) error {
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return err
	}
	targetCtx, err := s.targetContext(ctx, target)
	if err != nil {
		return err
	}

	decision := s.resolver.CanDeleteUser(actor, targetCtx)
	s.observe("user", "soft_delete", decision)
	if !decision.Allowed {
		s.emitDenied(ctx, actor.UserID, targetID, decision)
		return denied(decision.Reason, "user %d may not delete user %d", actor.UserID, targetID)
	}

	deleted, err := s.store.SoftDelete(ctx, targetID)
	if err != nil {
		return storeError(err)
	}
	if !deleted {
		return notFound(targetID)
	}

	event := audit.NewEvent(actor.UserID, audit.ActionUserSoftDelete, audit.ResourceTypeUser,
		strconv.FormatInt(targetID, 10)).
		WithChange(map[string]any{"deleted": false}, map[string]any{"deleted": true})
	s.emit(ctx, event)
	return nil
}

// targetContext builds the resolver's view of the target: their current
// organization and the role held there through an approved membership.
func (s *Service) targetContext(ctx context.Context, target *User) (authz.UserContext, error) {
	targetCtx := authz.UserContext{ID: target.ID, OrganizationID: target.CurrentOrganizationID}
	if target.CurrentOrganizationID != nil {
		m, err := s.memberships.Get(ctx, target.ID, *target.CurrentOrganizationID)
		if err != nil {
			return authz.UserContext{}, storeError(err)
		}
		if m.Approved() {
			targetCtx.Role = m.Role
		}
	}
	return targetCtx, nil
}

func (s *Service) observe(resource, action string, decision authz.Decision) {
	if s.metrics != nil {
		s.metrics.ObserveDecision(resource, action, decision.Allowed)
	}
}

func (s *Service) emitDenied(ctx context.Context, actorID, targetID int64, decision authz.Decision) {
	event := audit.NewEvent(actorID, audit.ActionAccessDenied, audit.ResourceTypeUser,
		strconv.FormatInt(targetID, 10))
	event.Reason = string(decision.Reason)
	s.emit(ctx, event)
}

func (s *Service) emit(ctx context.Context, event *audit.Event) {
	if err := s.audit.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WithError(err).WithField("action", string(event.Action)).Warn("audit emission failed")
	}
}
