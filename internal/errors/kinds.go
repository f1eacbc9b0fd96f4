package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a domain failure independently of transport.
type Kind string

const (
	KindUnauthorized        Kind = "Unauthorized"
	KindInvalidTransition   Kind = "InvalidTransition"
	KindNotFound            Kind = "NotFound"
	KindConflict            Kind = "Conflict"
	KindBlockedByDependency Kind = "BlockedByDependency"
	KindCascadeDeleteFailed Kind = "CascadeDeleteFailed"
	KindInvalidInput        Kind = "InvalidInput"
	KindInvalidCredentials  Kind = "InvalidCredentials"
)

// Error is a domain error carrying its kind through wrapping.
type Error struct {
	Kind    Kind
	Message string
	// Step names the failing cascade step for KindCascadeDeleteFailed.
	Step string
	Err  error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CascadeDeleteFailed reports that the named cascade step could not complete.
func CascadeDeleteFailed(step string, err error) *Error {
	return &Error{
		Kind:    KindCascadeDeleteFailed,
		Message: fmt.Sprintf("cascade delete failed at step %s", step),
		Step:    step,
		Err:     err,
	}
}

// KindOf returns the kind of the first domain error in err's chain.
func KindOf(err error) (Kind, bool) {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
