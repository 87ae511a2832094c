package service

import (
	"errors"
	"fmt"

	"uniform-service/internal/store"
)

// ErrorKind classifies a failed operation for the caller
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindConflict          ErrorKind = "conflict"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindInvalidState      ErrorKind = "invalid_state"
	KindUnavailable       ErrorKind = "unavailable"
	KindInvalid           ErrorKind = "invalid"
)

// Error is the typed error every service operation returns
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind. Unavailable also matches NotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind || (e.Kind == KindUnavailable && t.Kind == KindNotFound)
}

// Sentinels for errors.Is
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "invalid transition"}
	ErrInvalidState      = &Error{Kind: KindInvalidState, Message: "invalid state"}
	ErrUnavailable       = &Error{Kind: KindUnavailable, Message: "unavailable"}
	ErrInvalid           = &Error{Kind: KindInvalid, Message: "invalid input"}
)

func newError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of a service error, or "" for anything else
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// fromStore converts store sentinels into service errors. Other errors are
// wrapped unchanged and surface as internal failures.
func fromStore(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newError(KindNotFound, err, format, args...)
	case errors.Is(err, store.ErrStatusMismatch):
		return newError(KindInvalidTransition, err, format, args...)
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrActiveRequest),
		errors.Is(err, store.ErrCategoryFulfilled),
		errors.Is(err, store.ErrReferenced):
		return newError(KindConflict, err, format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
