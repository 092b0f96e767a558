package services

import (
	"errors"
	"fmt"

	"pagenotes/internal/store"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindForbidden
	KindConflict
	KindCollaborator
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindCollaborator:
		return "collaborator"
	}
	return "unknown"
}

var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrCollaborator = &Error{Kind: KindCollaborator}
)

// Error is the typed failure every core operation returns.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can write errors.Is(err, services.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil
}

// KindOf returns the kind of err, or 0 when err is not a core error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func invalid(op, message string) error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func notFound(op, message string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

func forbidden(op, message string) error {
	return &Error{Kind: KindForbidden, Op: op, Message: message}
}

// storeErr classifies a persistence failure.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	case errors.Is(err, store.ErrConflict):
		return &Error{Kind: KindConflict, Op: op, Err: err}
	default:
		return &Error{Kind: KindCollaborator, Op: op, Err: err}
	}
}
