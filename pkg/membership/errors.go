package membership

import (
	"errors"
	"fmt"
)

// Kind classifies lifecycle errors so callers can map them to responses
// without parsing messages.
type Kind string

const (
	KindInsufficientPrivilege Kind = "insufficient_privilege"
	KindNotAMember            Kind = "not_a_member"
	KindAlreadyMember         Kind = "already_member"
	KindRequestAlreadyPending Kind = "request_already_pending"
	KindRequestNotFound       Kind = "request_not_found"
	KindSelfActionForbidden   Kind = "self_action_forbidden"

	// KindStoreUnavailable marks storage-layer failures. Unlike the
	// client-caused kinds above, these are safe to retry: no partial state
	// is committed when a transaction fails.
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error is a classified lifecycle error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors of the same kind, so errors.Is works with sentinel-style
// comparisons against a bare &Error{Kind: ...}.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// storeError wraps a storage failure as KindStoreUnavailable. Errors that
// already carry a kind pass through unchanged.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Kind: KindStoreUnavailable, Message: "membership store failure", Err: err}
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

// Retryable reports whether the caller may safely retry the operation.
func Retryable(err error) bool {
	return IsKind(err, KindStoreUnavailable)
}
