package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdesk/crewdesk/pkg/audit"
	"github.com/crewdesk/crewdesk/pkg/authz"
	"github.com/crewdesk/crewdesk/pkg/membership"
	"github.com/crewdesk/crewdesk/pkg/roles"
)

type fakeUserStore struct {
	users  map[int64]*User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*User)}
}

func (s *fakeUserStore) Get(ctx context.Context, id int64) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	snapshot := *u
	return &snapshot, nil
}

func (s *fakeUserStore) Create(ctx context.Context, u *User) error {
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	snapshot := *u
	s.users[u.ID] = &snapshot
	return nil
}

func (s *fakeUserStore) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*User, error) {
	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	if update.Username != nil {
		u.Username = *update.Username
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	u.UpdatedAt = time.Now().UTC()
	snapshot := *u
	return &snapshot, nil
}

func (s *fakeUserStore) SoftDelete(ctx context.Context, id int64) (bool, error) {
	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	return true, nil
}

func (s *fakeUserStore) SystemRole(ctx context.Context, userID int64) (*roles.ID, error) {
	u, ok := s.users[userID]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	return u.SystemRole, nil
}

// fakeMembershipReader serves the membership snapshots the service needs to
// build target contexts.
type fakeMembershipReader struct {
	memberships map[int64]map[int64]*membership.Membership
}

func (f *fakeMembershipReader) Get(ctx context.Context, userID, orgID int64) (*membership.Membership, error) {
	m, ok := f.memberships[userID][orgID]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (f *fakeMembershipReader) ListApproved(ctx context.Context, userID int64) ([]*membership.Membership, error) {
	var approved []*membership.Membership
	for _, m := range f.memberships[userID] {
		if m.Status == membership.StatusApproved {
			approved = append(approved, m)
		}
	}
	return approved, nil
}

func (f *fakeMembershipReader) WithTx(ctx context.Context, fn func(tx membership.Tx) error) error {
	panic("user service must not open membership transactions")
}

type recordingEmitter struct {
	events []*audit.Event
}

func (r *recordingEmitter) Emit(ctx context.Context, event *audit.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) Close() error { return nil }

const testOrg = int64(10)

func newTestService(t *testing.T) (*Service, *fakeUserStore, *fakeMembershipReader, *recordingEmitter) {
	t.Helper()
	store := newFakeUserStore()
	memberships := &fakeMembershipReader{memberships: make(map[int64]map[int64]*membership.Membership)}
	emitter := &recordingEmitter{}
	service := NewService(store, memberships, authz.NewResolver(roles.NewRegistry()), emitter, nil, nil)
	return service, store, memberships, emitter
}

func seedUser(t *testing.T, store *fakeUserStore, memberships *fakeMembershipReader, username string, role roles.ID) *User {
	t.Helper()
	org := testOrg
	u := &User{Username: username, Email: username + "@example.com", CurrentOrganizationID: &org}
	require.NoError(t, store.Create(context.Background(), u))
	store.users[u.ID].CurrentOrganizationID = &org
	if memberships.memberships[u.ID] == nil {
		memberships.memberships[u.ID] = make(map[int64]*membership.Membership)
	}
	memberships.memberships[u.ID][org] = &membership.Membership{
		UserID: u.ID, OrganizationID: org, Role: role, Status: membership.StatusApproved,
	}
	return u
}

func actorFor(u *User, role roles.ID) authz.ActorContext {
	return authz.ActorContext{
		UserID:                u.ID,
		CurrentOrganizationID: u.CurrentOrganizationID,
		Memberships:           map[int64]roles.ID{testOrg: role},
	}
}

func TestUpdateProfileSelf(t *testing.T) {
	service, store, memberships, emitter := newTestService(t)
	ctx := context.Background()
	u := seedUser(t, store, memberships, "alice", roles.Member)

	newName := "alice2"
	updated, err := service.UpdateProfile(ctx, actorFor(u, roles.Member), u.ID, ProfileUpdate{Username: &newName})
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, audit.ActionUserEdit, emitter.events[0].Action)
	assert.Equal(t, "alice", emitter.events[0].Before["username"])
	assert.Equal(t, "alice2", emitter.events[0].After["username"])
}

func TestUpdateProfilePeerDenied(t *testing.T) {
	service, store, memberships, emitter := newTestService(t)
	ctx := context.Background()
	actor := seedUser(t, store, memberships, "admin1", roles.Admin)
	target := seedUser(t, store, memberships, "admin2", roles.Admin)

	newName := "hijacked"
	_, err := service.UpdateProfile(ctx, actorFor(actor, roles.Admin), target.ID, ProfileUpdate{Username: &newName})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindPermissionDenied))
	assert.Equal(t, authz.ReasonRoleTooLow, ReasonOf(err))
	assert.Equal(t, "admin2", store.users[target.ID].Username)

	// Denials are audited with the reason code.
	require.Len(t, emitter.events, 1)
	assert.Equal(t, audit.ActionAccessDenied, emitter.events[0].Action)
	assert.Equal(t, string(authz.ReasonRoleTooLow), emitter.events[0].Reason)
}

func TestUpdateProfileAdminEditsMember(t *testing.T) {
	service, store, memberships, _ := newTestService(t)
	ctx := context.Background()
	actor := seedUser(t, store, memberships, "admin1", roles.Admin)
	target := seedUser(t, store, memberships, "bob", roles.Member)

	newEmail := "bob@corp.example.com"
	updated, err := service.UpdateProfile(ctx, actorFor(actor, roles.Admin), target.ID, ProfileUpdate{Email: &newEmail})
	require.NoError(t, err)
	assert.Equal(t, newEmail, updated.Email)
}

func TestSoftDelete(t *testing.T) {
	service, store, memberships, emitter := newTestService(t)
	ctx := context.Background()
	actor := seedUser(t, store, memberships, "root", roles.Superadmin)
	target := seedUser(t, store, memberships, "bob", roles.Member)

	require.NoError(t, service.SoftDelete(ctx, actorFor(actor, roles.Superadmin), target.ID))
	assert.NotNil(t, store.users[target.ID].DeletedAt)

	var actions []audit.Action
	for _, e := range emitter.events {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, audit.ActionUserSoftDelete)

	// The account is gone from the service's point of view.
	_, err := service.Get(ctx, target.ID)
	assert.True(t, IsKind(err, KindUserNotFound))
}

func TestSoftDeleteSelfForbidden(t *testing.T) {
	service, store, memberships, _ := newTestService(t)
	actor := seedUser(t, store, memberships, "root", roles.Superadmin)

	err := service.SoftDelete(context.Background(), actorFor(actor, roles.Superadmin), actor.ID)
	require.Error(t, err)
	assert.Equal(t, authz.ReasonSelfActionForbidden, ReasonOf(err))
	assert.Nil(t, store.users[actor.ID].DeletedAt)
}

func TestSoftDeletePeerDenied(t *testing.T) {
	service, store, memberships, _ := newTestService(t)
	actor := seedUser(t, store, memberships, "admin1", roles.Admin)
	target := seedUser(t, store, memberships, "admin2", roles.Admin)

	err := service.SoftDelete(context.Background(), actorFor(actor, roles.Admin), target.ID)
	assert.True(t, IsKind(err, KindPermissionDenied))
}

func TestGetNotFound(t *testing.T) {
	service, _, _, _ := newTestService(t)

	_, err := service.Get(context.Background(), 404)
	assert.True(t, IsKind(err, KindUserNotFound))
}
