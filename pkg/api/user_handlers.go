package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crewdesk/crewdesk/pkg/httputil"
	"github.com/crewdesk/crewdesk/pkg/middleware"
	"github.com/crewdesk/crewdesk/pkg/users"
)

// UserHandlers handles user account HTTP requests.
type UserHandlers struct {
	service *users.Service
}

// NewUserHandlers creates a new UserHandlers.
func NewUserHandlers(service *users.Service) *UserHandlers {
	return &UserHandlers{service: service}
}

// RegisterRoutes registers user account routes.
func (h *UserHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users/{id}", h.Get).Methods("GET")
	router.HandleFunc("/users/{id}", h.UpdateProfile).Methods("PATCH")
	router.HandleFunc("/users/{id}", h.Delete).Methods("DELETE")
}

// Get returns a user account.
func (h *UserHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, u)
}

// UpdateProfile edits a user's profile fields.
func (h *UserHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing actor context")
		return
	}

	var update users.ProfileUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), actor, id, update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, u)
}

// Delete soft-deletes a user account.
func (h *UserHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing actor context")
		return
	}

	if err := h.service.SoftDelete(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
