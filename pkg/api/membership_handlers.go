package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crewdesk/crewdesk/pkg/contextkeys"
	"github.com/crewdesk/crewdesk/pkg/httputil"
	"github.com/crewdesk/crewdesk/pkg/membership"
	"github.com/crewdesk/crewdesk/pkg/roles"
)

// MembershipHandlers handles membership lifecycle HTTP requests.
type MembershipHandlers struct {
	lifecycle *membership.Lifecycle
	roles     *roles.Registry
}

// NewMembershipHandlers creates a new MembershipHandlers.
func NewMembershipHandlers(lifecycle *membership.Lifecycle, registry *roles.Registry) *MembershipHandlers {
	return &MembershipHandlers{
		lifecycle: lifecycle,
		roles:     registry,
	}
}

// RegisterRoutes registers membership lifecycle routes.
func (h *MembershipHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/orgs/{id}/join", h.RequestJoin).Methods("POST")
	router.HandleFunc("/orgs/{id}/invitations", h.Invite).Methods("POST")
	router.HandleFunc("/orgs/{id}/requests/{user_id}", h.ProcessRequest).Methods("POST")
	router.HandleFunc("/orgs/{id}/members/{user_id}/role", h.UpdateRole).Methods("PUT")
	router.HandleFunc("/orgs/{id}/members/{user_id}", h.RemoveMember).Methods("DELETE")
	router.HandleFunc("/orgs/{id}/leave", h.Leave).Methods("POST")
	router.HandleFunc("/users/me/memberships", h.ListMine).Methods("GET")
	router.HandleFunc("/users/me/organization", h.SwitchOrganization).Methods("POST")
}

// RequestJoin submits a join request for the calling user.
func (h *MembershipHandlers) RequestJoin(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	m, err := h.lifecycle.RequestJoin(r.Context(), contextkeys.GetUserID(r.Context()), orgID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, m)
}

type inviteRequest struct {
	UserID int64    `json:"user_id"`
	Role   roles.ID `json:"role"`
}

// Invite creates a pending membership for another user on their behalf.
func (h *MembershipHandlers) Invite(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req inviteRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequirePositive(w, req.UserID, "user_id") {
		return
	}
	if req.Role == "" {
		req.Role = roles.Member
	}
	if !h.roles.Known(req.Role) {
		httputil.WriteBadRequest(w, "unknown role: "+string(req.Role))
		return
	}

	m, err := h.lifecycle.Invite(r.Context(), contextkeys.GetUserID(r.Context()), req.UserID, orgID, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, m)
}

type processRequest struct {
	Decision membership.Decision `json:"decision"`
}

// ProcessRequest approves or rejects a pending membership request.
func (h *MembershipHandlers) ProcessRequest(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user_id")
	if !ok {
		return
	}

	var req processRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.Decision.Valid() {
		httputil.WriteBadRequest(w, "decision must be approve or reject")
		return
	}

	m, err := h.lifecycle.ProcessRequest(r.Context(), contextkeys.GetUserID(r.Context()), userID, orgID, req.Decision)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, m)
}

type updateRoleRequest struct {
	Role roles.ID `json:"role"`
}

// UpdateRole changes an approved member's role.
func (h *MembershipHandlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user_id")
	if !ok {
		return
	}

	var req updateRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !h.roles.Known(req.Role) {
		httputil.WriteBadRequest(w, "unknown role: "+string(req.Role))
		return
	}

	m, err := h.lifecycle.UpdateRole(r.Context(), contextkeys.GetUserID(r.Context()), userID, orgID, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, m)
}

// RemoveMember removes an approved member from the organization. Pending
// requests are decided through ProcessRequest, not removed here.
func (h *MembershipHandlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "user_id")
	if !ok {
		return
	}

	if err := h.lifecycle.RemoveMembership(r.Context(), contextkeys.GetUserID(r.Context()), userID, orgID); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// Leave removes the calling user's own membership.
func (h *MembershipHandlers) Leave(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.lifecycle.Leave(r.Context(), contextkeys.GetUserID(r.Context()), orgID); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// ListMine returns the calling user's approved memberships.
func (h *MembershipHandlers) ListMine(w http.ResponseWriter, r *http.Request) {
	memberships, err := h.lifecycle.ApprovedMemberships(r.Context(), contextkeys.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if memberships == nil {
		memberships = []*membership.Membership{}
	}
	httputil.WriteSuccess(w, memberships)
}

type switchOrganizationRequest struct {
	OrganizationID int64 `json:"organization_id"`
}

// SwitchOrganization changes the calling user's current organization.
func (h *MembershipHandlers) SwitchOrganization(w http.ResponseWriter, r *http.Request) {
	var req switchOrganizationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequirePositive(w, req.OrganizationID, "organization_id") {
		return
	}

	if err := h.lifecycle.SwitchCurrentOrganization(r.Context(), contextkeys.GetUserID(r.Context()), req.OrganizationID); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
