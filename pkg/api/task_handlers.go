package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crewdesk/crewdesk/pkg/httputil"
	"github.com/crewdesk/crewdesk/pkg/middleware"
	"github.com/crewdesk/crewdesk/pkg/tasks"
)

// TaskHandlers handles task HTTP requests.
type TaskHandlers struct {
	service *tasks.Service
}

// NewTaskHandlers creates a new TaskHandlers.
func NewTaskHandlers(service *tasks.Service) *TaskHandlers {
	return &TaskHandlers{service: service}
}

// RegisterRoutes registers task routes.
func (h *TaskHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/tasks", h.Create).Methods("POST")
	router.HandleFunc("/tasks/{id}", h.Get).Methods("GET")
	router.HandleFunc("/tasks/{id}", h.Update).Methods("PATCH")
	router.HandleFunc("/tasks/{id}", h.Delete).Methods("DELETE")
	router.HandleFunc("/tasks/{id}/complete", h.Complete).Methods("POST")
	router.HandleFunc("/tasks/{id}/assignee", h.Reassign).Methods("PUT")
}

type createTaskRequest struct {
	OrganizationID int64  `json:"organization_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	AssignedTo     *int64 `json:"assigned_to,omitempty"`
}

// Create creates a task in an organization the actor belongs to.
func (h *TaskHandlers) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing actor context")
		return
	}

	var req createTaskRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequirePositive(w, req.OrganizationID, "organization_id") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return
	}

	t, err := h.service.Create(r.Context(), actor, &tasks.Task{
		OrganizationID: req.OrganizationID,
		CreatorID:      actor.UserID,
		AssignedTo:     req.AssignedTo,
		Title:          req.Title,
		Description:    req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, t)
}

// Get returns a task visible to the actor.
func (h *TaskHandlers) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing actor context")
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	t, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, t)
}

// Update edits a task's editable fields.
func (h *TaskHandlers) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing actor context")
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var update tasks.TaskUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	t, err := h.service.Update(r.Context(), actor, id, update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, t)
}

// Delete deletes a task.
func (h *TaskHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing actor context")
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// Complete marks a task completed.
func (h *TaskHandlers) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing actor context")
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	t, err := h.service.Complete(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, t)
}

type reassignRequest struct {
	AssignedTo *int64 `json:"assigned_to"`
}

// Reassign changes a task's assignee. A null assignee unassigns.
func (h *TaskHandlers) Reassign(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "missing actor context")
		return
	}
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req reassignRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	t, err := h.service.Reassign(r.Context(), actor, id, req.AssignedTo)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, t)
}
