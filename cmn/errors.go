// Package cmn provides the common types, identifiers, and error taxonomy
// shared by every component of the catalog and the data proxy.
/*
 * Adapted from the AIStore cmn package's constant/error conventions.
 */
package cmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrKind is the abstract error taxonomy from which every transport-level
// mapping (RPC status, S3 REST error code) is derived. Handlers never
// return anything but a *cmn.Error (or nil); everything else is a bug.
type ErrKind uint8

const (
	KindInternal ErrKind = iota
	KindUnauthenticated
	KindPermissionDenied
	KindNotFound
	KindInvalidArgument
	KindConflict
	KindMalformedRule
	KindUnimplemented
)

func (k ErrKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindNotFound:
		return "NotFound"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindConflict:
		return "Conflict"
	case KindMalformedRule:
		return "MalformedRule"
	case KindUnimplemented:
		return "Unimplemented"
	default:
		return "Internal"
	}
}

// Error is the only error type handlers are allowed to return across a
// component boundary. Message is what the client sees; cause is logged
// with the request id and never serialized.
type Error struct {
	Kind    ErrKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Cause returns the wrapped internal error for logging; callers at a
// transport edge must never forward it to a client.
func (e *Error) Cause() error {
	if e.cause != nil {
		return e.cause
	}
	return e
}

func NewError(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func NewErrorf(kind ErrKind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// Wrap attaches an abstract Kind and fixed client message to an internal
// cause, preserving the cause for logging via errors.Wrap.
func Wrap(kind ErrKind, cause error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, cause: errors.Wrap(cause, msg)}
}

func IsKind(err error, kind ErrKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrUnauthenticated   = NewError(KindUnauthenticated, "authentication required")
	ErrPermissionDenied  = NewError(KindPermissionDenied, "insufficient permissions")
	ErrNotFound          = NewError(KindNotFound, "not found")
	ErrUnimplemented     = NewError(KindUnimplemented, "not implemented")
	ErrAccessDenied      = NewError(KindPermissionDenied, "Access Denied")
	ErrNoSuchKey         = NewError(KindNotFound, "NoSuchKey")
	ErrMalformedACL      = NewError(KindMalformedRule, "MalformedACLError")
)
