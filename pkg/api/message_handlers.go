package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crewdesk/crewdesk/pkg/contextkeys"
	"github.com/crewdesk/crewdesk/pkg/httputil"
	"github.com/crewdesk/crewdesk/pkg/recall"
)

// MessageHandlers handles message recall HTTP requests.
type MessageHandlers struct {
	service *recall.Service
}

// NewMessageHandlers creates a new MessageHandlers.
func NewMessageHandlers(service *recall.Service) *MessageHandlers {
	return &MessageHandlers{service: service}
}

// RegisterRoutes registers message routes.
func (h *MessageHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/messages/{id}", h.View).Methods("GET")
	router.HandleFunc("/messages/{id}/recall", h.Recall).Methods("POST")
}

// View returns a message rendered for the calling user. Recalled content
// is replaced by the tombstone according to the recall scope.
func (h *MessageHandlers) View(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	m, err := h.service.View(r.Context(), contextkeys.GetUserID(r.Context()), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, m)
}

type recallRequest struct {
	Scope recall.Scope `json:"scope"`
}

// Recall recalls a message the calling user sent.
func (h *MessageHandlers) Recall(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req recallRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.Scope.Recallable() {
		httputil.WriteBadRequest(w, "scope must be self or all")
		return
	}

	m, err := h.service.Recall(r.Context(), contextkeys.GetUserID(r.Context()), id, req.Scope)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, m)
}
