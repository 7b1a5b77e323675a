package membership

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/crewdesk/crewdesk/pkg/audit"
	"github.com/crewdesk/crewdesk/pkg/observability"
	"github.com/crewdesk/crewdesk/pkg/roles"
)

// SystemRoleSource reports a user's platform-level role, if any. A platform
// superadmin acts with top rank in every organization.
type SystemRoleSource interface {
	SystemRole(ctx context.Context, userID int64) (*roles.ID, error)
}

// LifecycleConfig wires the lifecycle's collaborators.
type LifecycleConfig struct {
	Store       Store
	Roles       *roles.Registry
	SystemRoles SystemRoleSource // optional
	Audit       audit.Emitter    // optional
	Logger      *observability.Logger
	Metrics     *observability.Metrics // optional
	Cache       *Cache                 // optional

	// PendingTTL bounds how long a join request may sit undecided before
	// the expiry sweep rejects it. Zero disables expiry.
	PendingTTL time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

// Lifecycle drives the membership state machine. Every mutating operation
// runs inside one store transaction, emits an audit event after commit, and
// invalidates the affected user's cached snapshot.
type Lifecycle struct {
	store      Store
	roles      *roles.Registry
	sysRoles   SystemRoleSource
	audit      audit.Emitter
	logger     *observability.Logger
	metrics    *observability.Metrics
	cache      *Cache
	pendingTTL time.Duration
	now        func() time.Time
}

// NewLifecycle creates the lifecycle engine.
func NewLifecycle(cfg LifecycleConfig) *Lifecycle {
	l := &Lifecycle{
		store:      cfg.Store,
		roles:      cfg.Roles,
		sysRoles:   cfg.SystemRoles,
		audit:      cfg.Audit,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		cache:      cfg.Cache,
		pendingTTL: cfg.PendingTTL,
		now:        cfg.Now,
	}
	if l.audit == nil {
		l.audit = audit.NoopEmitter{}
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// RequestJoin submits a join request for (userID, orgID). A rejected row is
// resubmitted as pending; an approved row fails with AlreadyMember and a
// pending row with RequestAlreadyPending.
func (l *Lifecycle) RequestJoin(ctx context.Context, userID, orgID int64) (*Membership, error) {
	var result *Membership
	var before *Membership
	err := l.store.WithTx(ctx, func(tx Tx) error {
		existing, err := tx.GetForUpdate(ctx, userID, orgID)
		if err != nil {
			return storeError(err)
		}
		before = existing
		switch {
		case existing.Approved():
			return newError(KindAlreadyMember, "user %d is already a member of organization %d", userID, orgID)
		case existing.Pending():
			return newError(KindRequestAlreadyPending, "user %d already has a pending request for organization %d", userID, orgID)
		}

		m := &Membership{
			UserID:         userID,
			OrganizationID: orgID,
			Role:           roles.Member,
			Status:         StatusPending,
		}
		if err := tx.Upsert(ctx, m); err != nil {
			return storeError(err)
		}
		result = m
		return nil
	})
	l.observe("request_join", err)
	if err != nil {
		return nil, err
	}
	l.invalidate(userID)
	l.emit(ctx, userID, audit.ActionMembershipRequest, orgID, userID, before, result)
	return result, nil
}

// Invite creates or overwrites a pending membership for the target user on
// behalf of an inviter holding at least admin rank in the organization. The
// inviter may not propose a role above their own rank.
func (l *Lifecycle) Invite(ctx context.Context, inviterID, userID, orgID int64, role roles.ID) (*Membership, error) {
	if !l.roles.Known(role) {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	var result *Membership
	var before *Membership
	err := l.store.WithTx(ctx, func(tx Tx) error {
		inviterRank, err := l.effectiveRank(ctx, tx, inviterID, orgID)
		if err != nil {
			return err
		}
		if inviterRank > roles.RankAdmin {
			return newError(KindInsufficientPrivilege, "user %d may not invite into organization %d", inviterID, orgID)
		}
		proposedRank, _ := l.roles.Rank(role)
		if proposedRank < inviterRank {
			return newError(KindInsufficientPrivilege, "user %d may not grant role %s above their own rank", inviterID, role)
		}

		existing, err := tx.GetForUpdate(ctx, userID, orgID)
		if err != nil {
			return storeError(err)
		}
		before = existing
		if existing.Approved() {
			return newError(KindAlreadyMember, "user %d is already a member of organization %d", userID, orgID)
		}

		m := &Membership{
			UserID:         userID,
			OrganizationID: orgID,
			Role:           role,
			Status:         StatusPending,
			InvitedBy:      &inviterID,
		}
		if err := tx.Upsert(ctx, m); err != nil {
			return storeError(err)
		}
		result = m
		return nil
	})
	l.observe("invite", err)
	if err != nil {
		return nil, err
	}
	l.invalidate(userID)
	l.emit(ctx, inviterID, audit.ActionMembershipInvite, orgID, userID, before, result)
	return result, nil
}

// ProcessRequest decides a pending request. Only a processor holding the top
// rank in the organization may decide; admins are refused.
func (l *Lifecycle) ProcessRequest(ctx context.Context, processorID, userID, orgID int64, decision Decision) (*Membership, error) {
	if !decision.Valid() {
		return nil, fmt.Errorf("unknown decision %q", decision)
	}
	action := audit.ActionMembershipApprove
	if decision == DecisionReject {
		action = audit.ActionMembershipReject
	}

	var result *Membership
	var before *Membership
	err := l.store.WithTx(ctx, func(tx Tx) error {
		processorRank, err := l.effectiveRank(ctx, tx, processorID, orgID)
		if err != nil {
			return err
		}
		if processorRank != roles.RankSuperadmin {
			return newError(KindInsufficientPrivilege, "user %d may not process requests for organization %d", processorID, orgID)
		}

		existing, err := tx.GetForUpdate(ctx, userID, orgID)
		if err != nil {
			return storeError(err)
		}
		if !existing.Pending() {
			return newError(KindRequestNotFound, "no pending request for user %d in organization %d", userID, orgID)
		}
		before = snapshotOf(existing)

		existing.Status = StatusApproved
		if decision == DecisionReject {
			existing.Status = StatusRejected
		}
		if err := tx.Upsert(ctx, existing); err != nil {
			return storeError(err)
		}
		result = existing
		return nil
	})
	l.observe("process_"+string(decision), err)
	if err != nil {
		return nil, err
	}
	l.invalidate(userID)
	l.emit(ctx, processorID, action, orgID, userID, before, result)
	return result, nil
}

// UpdateRole changes an approved member's role. Only a top-rank processor
// may change roles, and never their own.
func (l *Lifecycle) UpdateRole(ctx context.Context, processorID, userID, orgID int64, newRole roles.ID) (*Membership, error) {
	if !l.roles.Known(newRole) {
		return nil, fmt.Errorf("unknown role %q", newRole)
	}
	if processorID == userID {
		return nil, newError(KindSelfActionForbidden, "user %d may not change their own role", processorID)
	}

	var result *Membership
	var before *Membership
	err := l.store.WithTx(ctx, func(tx Tx) error {
		processorRank, err := l.effectiveRank(ctx, tx, processorID, orgID)
		if err != nil {
			return err
		}
		if processorRank != roles.RankSuperadmin {
			return newError(KindInsufficientPrivilege, "user %d may not change roles in organization %d", processorID, orgID)
		}

		existing, err := tx.GetForUpdate(ctx, userID, orgID)
		if err != nil {
			return storeError(err)
		}
		if !existing.Approved() {
			return newError(KindNotAMember, "user %d is not a member of organization %d", userID, orgID)
		}
		before = snapshotOf(existing)

		existing.Role = newRole
		if err := tx.Upsert(ctx, existing); err != nil {
			return storeError(err)
		}
		result = existing
		return nil
	})
	l.observe("update_role", err)
	if err != nil {
		return nil, err
	}
	l.invalidate(userID)
	l.emit(ctx, processorID, audit.ActionMembershipRoleChange, orgID, userID, before, result)
	return result, nil
}

// RemoveMembership removes an approved member. A top-rank processor may
// remove anyone else; an admin may remove plain members only. If the removed
// user's current organization is this one it is cleared in the same
// transaction.
func (l *Lifecycle) RemoveMembership(ctx context.Context, processorID, userID, orgID int64) error {
	if processorID == userID {
		return newError(KindSelfActionForbidden, "user %d may not remove themself; leave the organization instead", processorID)
	}

	var before *Membership
	err := l.store.WithTx(ctx, func(tx Tx) error {
		existing, err := tx.GetForUpdate(ctx, userID, orgID)
		if err != nil {
			return storeError(err)
		}
		if !existing.Approved() {
			return newError(KindNotAMember, "user %d is not a member of organization %d", userID, orgID)
		}
		before = snapshotOf(existing)

		processorRank, err := l.effectiveRank(ctx, tx, processorID, orgID)
		if err != nil {
			return err
		}
		targetRank, _ := l.roles.Rank(existing.Role)
		allowed := processorRank == roles.RankSuperadmin ||
			(processorRank == roles.RankAdmin && targetRank == roles.RankMember)
		if !allowed {
			return newError(KindInsufficientPrivilege, "user %d may not remove user %d from organization %d", processorID, userID, orgID)
		}

		return l.removeInTx(ctx, tx, userID, orgID)
	})
	l.observe("remove", err)
	if err != nil {
		return err
	}
	l.invalidate(userID)
	l.emit(ctx, processorID, audit.ActionMembershipRemove, orgID, userID, before, nil)
	return nil
}

// Leave removes the caller's own approved membership. The sole top-rank
// member of an organization must hand the role to someone else first.
func (l *Lifecycle) Leave(ctx context.Context, userID, orgID int64) error {
	var before *Membership
	err := l.store.WithTx(ctx, func(tx Tx) error {
		existing, err := tx.GetForUpdate(ctx, userID, orgID)
		if err != nil {
			return storeError(err)
		}
		if !existing.Approved() {
			return newError(KindNotAMember, "user %d is not a member of organization %d", userID, orgID)
		}
		before = snapshotOf(existing)

		if rank, _ := l.roles.Rank(existing.Role); rank == roles.RankSuperadmin {
			count, err := tx.CountApprovedWithRole(ctx, orgID, existing.Role)
			if err != nil {
				return storeError(err)
			}
			if count <= 1 {
				return newError(KindInsufficientPrivilege, "user %d is the only %s of organization %d and must appoint a successor first", userID, existing.Role, orgID)
			}
		}

		return l.removeInTx(ctx, tx, userID, orgID)
	})
	l.observe("leave", err)
	if err != nil {
		return err
	}
	l.invalidate(userID)
	l.emit(ctx, userID, audit.ActionMembershipLeave, orgID, userID, before, nil)
	return nil
}

// SwitchCurrentOrganization sets the user's active organization. It fails
// with NotAMember unless an approved membership exists for the pair, and is
// idempotent when one does. The membership row is read under lock so a
// concurrent removal serializes with the switch instead of leaving the
// current organization pointing at a deleted row.
func (l *Lifecycle) SwitchCurrentOrganization(ctx context.Context, userID, orgID int64) error {
	var previous *int64
	err := l.store.WithTx(ctx, func(tx Tx) error {
		existing, err := tx.GetForUpdate(ctx, userID, orgID)
		if err != nil {
			return storeError(err)
		}
		if !existing.Approved() {
			return newError(KindNotAMember, "user %d has no approved membership in organization %d", userID, orgID)
		}
		previous, err = tx.CurrentOrganization(ctx, userID)
		if err != nil {
			return storeError(err)
		}
		if err := tx.SetCurrentOrganization(ctx, userID, &orgID); err != nil {
			return storeError(err)
		}
		return nil
	})
	l.observe("switch_organization", err)
	if err != nil {
		return err
	}

	event := audit.NewEvent(userID, audit.ActionUserSwitchOrganization, audit.ResourceTypeUser,
		strconv.FormatInt(userID, 10)).WithOrganization(orgID)
	beforeState := map[string]any{"current_organization_id": nil}
	if previous != nil {
		beforeState["current_organization_id"] = *previous
	}
	event.WithChange(beforeState, map[string]any{"current_organization_id": orgID})
	l.emitEvent(ctx, event)
	return nil
}

// ExpireStalePending rejects pending requests older than the configured TTL
// and returns how many were expired. It is a no-op when expiry is disabled.
func (l *Lifecycle) ExpireStalePending(ctx context.Context) (int, error) {
	if l.pendingTTL <= 0 {
		return 0, nil
	}
	cutoff := l.now().Add(-l.pendingTTL)

	var expired []ExpiredRequest
	err := l.store.WithTx(ctx, func(tx Tx) error {
		var err error
		expired, err = tx.ExpirePending(ctx, cutoff)
		return storeError(err)
	})
	l.observe("expire_pending", err)
	if err != nil {
		return 0, err
	}

	for _, e := range expired {
		l.invalidate(e.UserID)
		event := audit.NewEvent(0, audit.ActionMembershipExpire, audit.ResourceTypeMembership,
			pairID(e.UserID, e.OrganizationID)).WithOrganization(e.OrganizationID)
		event.WithChange(
			map[string]any{"status": string(StatusPending), "role": string(e.Role)},
			map[string]any{"status": string(StatusRejected), "role": string(e.Role)},
		)
		l.emitEvent(ctx, event)
	}
	if l.metrics != nil && len(expired) > 0 {
		l.metrics.PendingRequestsExpired.Add(float64(len(expired)))
	}
	return len(expired), nil
}

// removeInTx deletes the membership row and clears the user's current
// organization when it points at the organization being left. Both writes
// share the surrounding transaction so no intermediate state is observable.
func (l *Lifecycle) removeInTx(ctx context.Context, tx Tx, userID, orgID int64) error {
	if err := tx.Delete(ctx, userID, orgID); err != nil {
		return storeError(err)
	}
	current, err := tx.CurrentOrganization(ctx, userID)
	if err != nil {
		return storeError(err)
	}
	if current != nil && *current == orgID {
		if err := tx.SetCurrentOrganization(ctx, userID, nil); err != nil {
			return storeError(err)
		}
	}
	return nil
}

// effectiveRank resolves the rank an actor holds within an organization. A
// platform superadmin holds top rank everywhere; otherwise the rank comes
// from the actor's approved membership in that organization.
func (l *Lifecycle) effectiveRank(ctx context.Context, tx Tx, userID, orgID int64) (roles.Rank, error) {
	if l.sysRoles != nil {
		systemRole, err := l.sysRoles.SystemRole(ctx, userID)
		if err != nil {
			return 0, storeError(err)
		}
		if systemRole != nil && l.roles.Top(*systemRole) {
			return roles.RankSuperadmin, nil
		}
	}
	m, err := tx.Get(ctx, userID, orgID)
	if err != nil {
		return 0, storeError(err)
	}
	if !m.Approved() {
		return 0, newError(KindNotAMember, "user %d is not a member of organization %d", userID, orgID)
	}
	rank, ok := l.roles.Rank(m.Role)
	if !ok {
		return 0, fmt.Errorf("membership for user %d carries unknown role %q", userID, m.Role)
	}
	return rank, nil
}

func (l *Lifecycle) observe(operation string, err error) {
	if l.metrics != nil {
		l.metrics.ObserveTransition(operation, err)
	}
	if err != nil && l.logger != nil {
		l.logger.WithError(err).WithField("operation", operation).Debug("membership transition denied")
	}
}

func (l *Lifecycle) invalidate(userID int64) {
	if l.cache != nil {
		l.cache.Invalidate(userID)
	}
}

// emit builds and delivers the audit event for a membership transition.
// Emission is best-effort: the transaction has already committed and a sink
// failure must not surface to the caller.
func (l *Lifecycle) emit(ctx context.Context, actorID int64, action audit.Action, orgID, userID int64, before, after *Membership) {
	event := audit.NewEvent(actorID, action, audit.ResourceTypeMembership, pairID(userID, orgID)).
		WithOrganization(orgID).
		WithChange(stateOf(before), stateOf(after))
	l.emitEvent(ctx, event)
}

func (l *Lifecycle) emitEvent(ctx context.Context, event *audit.Event) {
	if err := l.audit.Emit(ctx, event); err != nil && l.logger != nil {
		l.logger.WithError(err).WithField("action", string(event.Action)).Warn("audit emission failed")
	}
}

func pairID(userID, orgID int64) string {
	return fmt.Sprintf("%d:%d", orgID, userID)
}

// snapshotOf copies the fields mutated by transitions so the pre-image
// survives in-place updates.
func snapshotOf(m *Membership) *Membership {
	if m == nil {
		return nil
	}
	snapshot := *m
	return &snapshot
}

// stateOf renders a membership as the before/after payload of an audit
// event. A nil membership renders as the NONE state.
func stateOf(m *Membership) map[string]any {
	if m == nil {
		return map[string]any{"status": "none"}
	}
	state := map[string]any{
		"status": string(m.Status),
		"role":   string(m.Role),
	}
	if m.InvitedBy != nil {
		state["invited_by"] = *m.InvitedBy
	}
	return state
}
