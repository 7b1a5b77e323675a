package api

import (
	"net/http"

	"github.com/crewdesk/crewdesk/pkg/httputil"
	"github.com/crewdesk/crewdesk/pkg/membership"
	"github.com/crewdesk/crewdesk/pkg/recall"
	"github.com/crewdesk/crewdesk/pkg/tasks"
	"github.com/crewdesk/crewdesk/pkg/users"
)

// writeServiceError maps classified domain errors onto HTTP responses.
// Authorization denials carry their stable reason code, storage failures
// are marked retryable, and anything unclassified becomes a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch kind := membership.KindOf(err); kind {
	case membership.KindInsufficientPrivilege, membership.KindSelfActionForbidden:
		httputil.WriteDenied(w, err.Error(), string(kind))
		return
	case membership.KindNotAMember, membership.KindRequestNotFound:
		httputil.WriteNotFoundError(w, err.Error())
		return
	case membership.KindAlreadyMember, membership.KindRequestAlreadyPending:
		httputil.WriteConflict(w, err.Error())
		return
	case membership.KindStoreUnavailable:
		httputil.WriteRetryable(w, err.Error())
		return
	}

	switch kind := users.KindOf(err); kind {
	case users.KindUserNotFound:
		httputil.WriteNotFoundError(w, err.Error())
		return
	case users.KindPermissionDenied:
		httputil.WriteDenied(w, err.Error(), string(users.ReasonOf(err)))
		return
	case users.KindStoreUnavailable:
		httputil.WriteRetryable(w, err.Error())
		return
	}

	switch kind := tasks.KindOf(err); kind {
	case tasks.KindTaskNotFound:
		httputil.WriteNotFoundError(w, err.Error())
		return
	case tasks.KindPermissionDenied:
		httputil.WriteDenied(w, err.Error(), string(tasks.ReasonOf(err)))
		return
	case tasks.KindInvalidAssignee:
		httputil.WriteBadRequest(w, err.Error())
		return
	case tasks.KindStoreUnavailable:
		httputil.WriteRetryable(w, err.Error())
		return
	}

	switch recall.KindOf(err) {
	case recall.KindMessageNotFound:
		httputil.WriteNotFoundError(w, err.Error())
		return
	case recall.KindNotSender:
		httputil.WriteDenied(w, err.Error(), string(recall.KindNotSender))
		return
	case recall.KindAlreadyRecalled:
		httputil.WriteConflict(w, err.Error())
		return
	case recall.KindStoreUnavailable:
		httputil.WriteRetryable(w, err.Error())
		return
	}

	httputil.WriteInternalError(w, err)
}
