package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdesk/crewdesk/pkg/authz"
	"github.com/crewdesk/crewdesk/pkg/membership"
	"github.com/crewdesk/crewdesk/pkg/observability"
	"github.com/crewdesk/crewdesk/pkg/roles"
	"github.com/crewdesk/crewdesk/pkg/users"
)

type fakeUserSource struct {
	users map[int64]*users.User
	err   error
}

func (f *fakeUserSource) Get(ctx context.Context, id int64) (*users.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, &users.Error{Kind: users.KindUserNotFound, Message: "user not found"}
	}
	return u, nil
}

type fakeMembershipSource struct {
	memberships map[int64][]*membership.Membership
}

func (f *fakeMembershipSource) ApprovedMemberships(ctx context.Context, userID int64) ([]*membership.Membership, error) {
	return f.memberships[userID], nil
}

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func newActorMiddleware(t *testing.T) (*ActorMiddleware, *fakeUserSource, *fakeMembershipSource) {
	t.Helper()
	superadmin := roles.Superadmin
	orgID := int64(10)
	userSource := &fakeUserSource{users: map[int64]*users.User{
		1: {ID: 1, Username: "root", SystemRole: &superadmin},
		2: {ID: 2, Username: "alice", CurrentOrganizationID: &orgID},
	}}
	membershipSource := &fakeMembershipSource{memberships: map[int64][]*membership.Membership{
		2: {
			{UserID: 2, OrganizationID: 10, Role: roles.Admin, Status: membership.StatusApproved},
			{UserID: 2, OrganizationID: 20, Role: roles.Member, Status: membership.StatusApproved},
		},
	}}
	return NewActorMiddleware(userSource, membershipSource, testLogger()), userSource, membershipSource
}

func TestActorMiddlewareBuildsContext(t *testing.T) {
	mw, _, _ := newActorMiddleware(t)

	var captured authz.ActorContext
	var ok bool
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, ok = GetActor(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/tasks/1", nil)
	req.Header.Set(UserHeader, "2")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, ok)
	assert.Equal(t, int64(2), captured.UserID)
	assert.Nil(t, captured.SystemRole)
	require.NotNil(t, captured.CurrentOrganizationID)
	assert.Equal(t, int64(10), *captured.CurrentOrganizationID)
	assert.Equal(t, map[int64]roles.ID{10: roles.Admin, 20: roles.Member}, captured.Memberships)
}

func TestActorMiddlewarePlatformSuperadmin(t *testing.T) {
	mw, _, _ := newActorMiddleware(t)

	var captured authz.ActorContext
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = GetActor(r.Context())
	}))

	req := httptest.NewRequest("GET", "/users/2", nil)
	req.Header.Set(UserHeader, "1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, captured.IsPlatformSuperadmin())
	assert.False(t, captured.HasAnyMembership())
}

func TestActorMiddlewareRejections(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not a number", header: "bob", wantStatus: http.StatusUnauthorized},
		{name: "non-positive", header: "0", wantStatus: http.StatusUnauthorized},
		{name: "unknown user", header: "99", wantStatus: http.StatusUnauthorized},
	}

	mw, _, _ := newActorMiddleware(t)
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/tasks/1", nil)
			if tt.header != "" {
				req.Header.Set(UserHeader, tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestActorMiddlewareStoreFailure(t *testing.T) {
	mw, userSource, _ := newActorMiddleware(t)
	userSource.err = errors.New("connection refused")

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/tasks/1", nil)
	req.Header.Set(UserHeader, "2")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"retryable":true`)
}
