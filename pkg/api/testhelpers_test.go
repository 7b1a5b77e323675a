package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/crewdesk/crewdesk/pkg/authz"
	"github.com/crewdesk/crewdesk/pkg/membership"
	"github.com/crewdesk/crewdesk/pkg/middleware"
	"github.com/crewdesk/crewdesk/pkg/observability"
	"github.com/crewdesk/crewdesk/pkg/recall"
	"github.com/crewdesk/crewdesk/pkg/roles"
	"github.com/crewdesk/crewdesk/pkg/tasks"
	"github.com/crewdesk/crewdesk/pkg/users"
)

type memberPair struct {
	userID int64
	orgID  int64
}

// fakeMembershipStore is an in-memory membership.Store. Transactions apply
// directly; transactional behavior is covered by the store's own tests.
type fakeMembershipStore struct {
	memberships map[memberPair]*membership.Membership
	currentOrg  map[int64]*int64
	nextID      int64
}

func newFakeMembershipStore() *fakeMembershipStore {
	return &fakeMembershipStore{
		memberships: make(map[memberPair]*membership.Membership),
		currentOrg:  make(map[int64]*int64),
	}
}

func (s *fakeMembershipStore) Get(ctx context.Context, userID, orgID int64) (*membership.Membership, error) {
	m, ok := s.memberships[memberPair{userID, orgID}]
	if !ok {
		return nil, nil
	}
	snapshot := *m
	return &snapshot, nil
}

func (s *fakeMembershipStore) ListApproved(ctx context.Context, userID int64) ([]*membership.Membership, error) {
	var approved []*membership.Membership
	for _, m := range s.memberships {
		if m.UserID == userID && m.Status == membership.StatusApproved {
			snapshot := *m
			approved = append(approved, &snapshot)
		}
	}
	return approved, nil
}

func (s *fakeMembershipStore) WithTx(ctx context.Context, fn func(tx membership.Tx) error) error {
	return fn(&fakeMembershipTx{store: s})
}

func (s *fakeMembershipStore) seed(userID, orgID int64, role roles.ID, status membership.Status) {
	s.nextID++
	now := time.Now().UTC()
	s.memberships[memberPair{userID, orgID}] = &membership.Membership{
		ID:             s.nextID,
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type fakeMembershipTx struct {
	store *fakeMembershipStore
}

func (t *fakeMembershipTx) Get(ctx context.Context, userID, orgID int64) (*membership.Membership, error) {
	return t.store.Get(ctx, userID, orgID)
}

func (t *fakeMembershipTx) GetForUpdate(ctx context.Context, userID, orgID int64) (*membership.Membership, error) {
	return t.store.Get(ctx, userID, orgID)
}

func (t *fakeMembershipTx) Upsert(ctx context.Context, m *membership.Membership) error {
	key := memberPair{m.UserID, m.OrganizationID}
	now := time.Now().UTC()
	if existing, ok := t.store.memberships[key]; ok {
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
	} else {
		t.store.nextID++
		m.ID = t.store.nextID
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	snapshot := *m
	t.store.memberships[key] = &snapshot
	return nil
}

func (t *fakeMembershipTx) Delete(ctx context.Context, userID, orgID int64) error {
	delete(t.store.memberships, memberPair{userID, orgID})
	return nil
}

func (t *fakeMembershipTx) CurrentOrganization(ctx context.Context, userID int64) (*int64, error) {
	return t.store.currentOrg[userID], nil
}

func (t *fakeMembershipTx) SetCurrentOrganization(ctx context.Context, userID int64, orgID *int64) error {
	t.store.currentOrg[userID] = orgID
	return nil
}

func (t *fakeMembershipTx) CountApprovedWithRole(ctx context.Context, orgID int64, role roles.ID) (int, error) {
	count := 0
	for _, m := range t.store.memberships {
		if m.OrganizationID == orgID && m.Status == membership.StatusApproved && m.Role == role {
			count++
		}
	}
	return count, nil
}

func (t *fakeMembershipTx) ExpirePending(ctx context.Context, cutoff time.Time) ([]membership.ExpiredRequest, error) {
	var expired []membership.ExpiredRequest
	for _, m := range t.store.memberships {
		if m.Status == membership.StatusPending && m.UpdatedAt.Before(cutoff) {
			m.Status = membership.StatusRejected
			expired = append(expired, membership.ExpiredRequest{
				UserID:         m.UserID,
				OrganizationID: m.OrganizationID,
				Role:           m.Role,
			})
		}
	}
	return expired, nil
}

type fakeUserStore struct {
	users map[int64]*users.User
}

func (s *fakeUserStore) Get(ctx context.Context, id int64) (*users.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	snapshot := *u
	return &snapshot, nil
}

func (s *fakeUserStore) Create(ctx context.Context, u *users.User) error {
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) UpdateProfile(ctx context.Context, id int64, update users.ProfileUpdate) (*users.User, error) {
	u, ok := s.users[id]
	if !ok || u.Deleted() {
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
	if !ok || u.Deleted() {
		return false, nil
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	return true, nil
}

func (s *fakeUserStore) SystemRole(ctx context.Context, userID int64) (*roles.ID, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return u.SystemRole, nil
}

type fakeTaskStore struct {
	tasks  map[int64]*tasks.Task
	nextID int64
}

func (s *fakeTaskStore) Get(ctx context.Context, id int64) (*tasks.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	snapshot := *t
	return &snapshot, nil
}

func (s *fakeTaskStore) Create(ctx context.Context, t *tasks.Task) error {
	s.nextID++
	t.ID = s.nextID
	t.Status = tasks.StatusOpen
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	snapshot := *t
	s.tasks[t.ID] = &snapshot
	return nil
}

func (s *fakeTaskStore) Update(ctx context.Context, id int64, update tasks.TaskUpdate) (*tasks.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	if update.Title != nil {
		t.Title = *update.Title
	}
	if update.Description != nil {
		t.Description = *update.Description
	}
	t.UpdatedAt = time.Now().UTC()
	snapshot := *t
	return &snapshot, nil
}

func (s *fakeTaskStore) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}

func (s *fakeTaskStore) Complete(ctx context.Context, id int64, at time.Time) (*tasks.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	t.Status = tasks.StatusCompleted
	t.CompletedAt = &at
	t.UpdatedAt = at
	snapshot := *t
	return &snapshot, nil
}

func (s *fakeTaskStore) Reassign(ctx context.Context, id int64, assignee *int64) (*tasks.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	t.AssignedTo = assignee
	t.UpdatedAt = time.Now().UTC()
	snapshot := *t
	return &snapshot, nil
}

type fakeMessageStore struct {
	messages map[int64]*recall.Message
}

func (s *fakeMessageStore) Get(ctx context.Context, id int64) (*recall.Message, error) {
	m, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	snapshot := *m
	return &snapshot, nil
}

func (s *fakeMessageStore) Create(ctx context.Context, m *recall.Message) error {
	s.messages[m.ID] = m
	return nil
}

func (s *fakeMessageStore) MarkRecalled(ctx context.Context, id int64, scope recall.Scope, at time.Time) (bool, error) {
	m, ok := s.messages[id]
	if !ok || m.Scope != recall.ScopeNone {
		return false, nil
	}
	m.Scope = scope
	m.RecalledAt = &at
	return true, nil
}

// fixture bundles the fakes behind a fully wired test server.
type fixture struct {
	handler     http.Handler
	memberships *fakeMembershipStore
	users       *fakeUserStore
	tasks       *fakeTaskStore
	messages    *fakeMessageStore
}

// Test world: org 10 has superadmin 2, admin 3, member 4. User 1 is a
// platform superadmin with no memberships, user 5 an outsider.
const (
	testOrg            = int64(10)
	platformSuperadmin = int64(1)
	orgSuperadmin      = int64(2)
	orgAdmin           = int64(3)
	orgMember          = int64(4)
	outsider           = int64(5)
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	registry := roles.NewRegistry()
	resolver := authz.NewResolver(registry)

	superadmin := roles.Superadmin
	org := testOrg
	userStore := &fakeUserStore{users: map[int64]*users.User{
		platformSuperadmin: {ID: platformSuperadmin, Username: "root", Email: "root@example.com", SystemRole: &superadmin},
		orgSuperadmin:      {ID: orgSuperadmin, Username: "sue", Email: "sue@example.com", CurrentOrganizationID: &org},
		orgAdmin:           {ID: orgAdmin, Username: "adam", Email: "adam@example.com", CurrentOrganizationID: &org},
		orgMember:          {ID: orgMember, Username: "mia", Email: "mia@example.com", CurrentOrganizationID: &org},
		outsider:           {ID: outsider, Username: "oscar", Email: "oscar@example.com"},
	}}

	membershipStore := newFakeMembershipStore()
	membershipStore.seed(orgSuperadmin, testOrg, roles.Superadmin, membership.StatusApproved)
	membershipStore.seed(orgAdmin, testOrg, roles.Admin, membership.StatusApproved)
	membershipStore.seed(orgMember, testOrg, roles.Member, membership.StatusApproved)

	taskStore := &fakeTaskStore{tasks: make(map[int64]*tasks.Task)}
	messageStore := &fakeMessageStore{messages: make(map[int64]*recall.Message)}

	lifecycle := membership.NewLifecycle(membership.LifecycleConfig{
		Store:       membershipStore,
		Roles:       registry,
		SystemRoles: userStore,
		Logger:      logger,
	})

	userService := users.NewService(userStore, membershipStore, resolver, nil, logger, nil)
	taskService := tasks.NewService(taskStore, membershipStore, resolver, nil, logger, nil)
	messageService := recall.NewService(messageStore, nil, logger, nil)

	handler := NewRouter(RouterConfig{
		Logger:      logger,
		Metrics:     observability.NewMetrics(nil),
		Actor:       middleware.NewActorMiddleware(userService, lifecycle, logger),
		Memberships: NewMembershipHandlers(lifecycle, registry),
		Users:       NewUserHandlers(userService),
		Tasks:       NewTaskHandlers(taskService),
		Messages:    NewMessageHandlers(messageService),
	})

	return &fixture{
		handler:     handler,
		memberships: membershipStore,
		users:       userStore,
		tasks:       taskStore,
		messages:    messageStore,
	}
}

// do sends a request through the full middleware chain as the given user.
func (f *fixture) do(method, path string, asUser int64, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if asUser != 0 {
		req.Header.Set(middleware.UserHeader, strconv.FormatInt(asUser, 10))
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}
