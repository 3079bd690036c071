package services

import (
	"errors"
	"fmt"

	"github.com/microtask/microtask_backend/repositories"
)

// Kind classifies a service failure. Controllers map it to an HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	}
	return "internal"
}

// Error is returned by every service operation that fails for a reason the
// caller should see.
type Error struct {
	Kind    Kind
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

// Is matches sentinels by kind and message so wrapped copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

var (
	ErrAlreadyProcessed  = &Error{Kind: KindConflict, Message: "already processed"}
	ErrInsufficientFunds = &Error{Kind: KindConflict, Message: "insufficient coins"}
	ErrNoSlotsLeft       = &Error{Kind: KindConflict, Message: "no worker slots left on this task"}
	ErrLocked            = &Error{Kind: KindConflict, Message: "another request is processing this item"}
	ErrDuplicateUser     = &Error{Kind: KindConflict, Message: "user already exists"}
	ErrDuplicatePayment  = &Error{Kind: KindConflict, Message: "payment already recorded"}
	ErrAlreadySubmitted  = &Error{Kind: KindConflict, Message: "you already submitted to this task"}
)

func validationError(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func notFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func internal(message string, err error) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// storeError turns a repository error into a service error
func storeError(what string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound(what)
	}
	return internal("failed to access "+what, err)
}

// KindOf extracts the Kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// outcome labels a result for metrics
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return KindOf(err).String()
}
