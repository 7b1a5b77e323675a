package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/crewdesk/crewdesk/pkg/authz"
	"github.com/crewdesk/crewdesk/pkg/contextkeys"
	"github.com/crewdesk/crewdesk/pkg/httputil"
	"github.com/crewdesk/crewdesk/pkg/membership"
	"github.com/crewdesk/crewdesk/pkg/observability"
	"github.com/crewdesk/crewdesk/pkg/roles"
	"github.com/crewdesk/crewdesk/pkg/users"
)

// UserHeader identifies the acting user on every request. The edge proxy
// authenticates the caller and sets this header; the engine itself never
// handles credentials.
const UserHeader = "X-Crewdesk-User"

// UserSource loads user accounts by ID.
type UserSource interface {
	Get(ctx context.Context, id int64) (*users.User, error)
}

// MembershipSource lists a user's approved memberships.
type MembershipSource interface {
	ApprovedMemberships(ctx context.Context, userID int64) ([]*membership.Membership, error)
}

// ActorMiddleware resolves the acting user from the request and builds the
// authz.ActorContext every protected handler reads from the context.
type ActorMiddleware struct {
	users       UserSource
	memberships MembershipSource
	logger      *observability.Logger
}

// NewActorMiddleware creates actor resolution middleware.
func NewActorMiddleware(userSource UserSource, membershipSource MembershipSource, logger *observability.Logger) *ActorMiddleware {
	return &ActorMiddleware{
		users:       userSource,
		memberships: membershipSource,
		logger:      logger,
	}
}

// Handler wraps an HTTP handler with actor resolution. Requests without a
// valid user header are rejected with 401.
func (m *ActorMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(UserHeader)
		if header == "" {
			httputil.WriteUnauthorized(w, "missing user identity")
			return
		}

		userID, err := strconv.ParseInt(header, 10, 64)
		if err != nil || userID <= 0 {
			httputil.WriteUnauthorized(w, "invalid user identity")
			return
		}

		actor, err := m.resolve(r.Context(), userID)
		if err != nil {
			if users.IsKind(err, users.KindUserNotFound) {
				httputil.WriteUnauthorized(w, "unknown user")
				return
			}
			m.logger.WithFields(map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			}).Error("failed to resolve actor")
			httputil.WriteRetryable(w, "identity store unavailable")
			return
		}

		ctx := contextkeys.WithActor(r.Context(), actor)
		ctx = contextkeys.WithUserID(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *ActorMiddleware) resolve(ctx context.Context, userID int64) (authz.ActorContext, error) {
	u, err := m.users.Get(ctx, userID)
	if err != nil {
		return authz.ActorContext{}, err
	}

	memberships, err := m.memberships.ApprovedMemberships(ctx, userID)
	if err != nil {
		return authz.ActorContext{}, err
	}

	actor := authz.ActorContext{
		UserID:                u.ID,
		SystemRole:            u.SystemRole,
		CurrentOrganizationID: u.CurrentOrganizationID,
		Memberships:           make(map[int64]roles.ID, len(memberships)),
	}
	for _, mem := range memberships {
		actor.Memberships[mem.OrganizationID] = mem.Role
	}
	return actor, nil
}

// GetActor extracts the actor context placed by ActorMiddleware.
func GetActor(ctx context.Context) (authz.ActorContext, bool) {
	actor, ok := ctx.Value(contextkeys.ActorKey).(authz.ActorContext)
	return actor, ok
}
