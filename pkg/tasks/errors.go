package tasks

import (
	"errors"
	"fmt"

	"github.com/crewdesk/crewdesk/pkg/authz"
)

// Kind classifies task service errors for response mapping.
type Kind string

const (
	KindTaskNotFound     Kind = "task_not_found"
	KindPermissionDenied Kind = "permission_denied"
	KindInvalidAssignee  Kind = "invalid_assignee"
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error is a classified task service error. Permission denials carry the
// resolver's reason code.
type Error struct {
	Kind    Kind
	Reason  authz.Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func notFound(taskID int64) *Error {
	return &Error{Kind: KindTaskNotFound, Message: fmt.Sprintf("task %d not found", taskID)}
}

func denied(reason authz.Reason, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPermissionDenied, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func storeError(err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: KindStoreUnavailable, Message: "task store failure", Err: err}
}

// KindOf returns the kind of a classified error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ReasonOf returns the denial reason of a classified error, or "".
func ReasonOf(err error) authz.Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
