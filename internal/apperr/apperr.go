// Package apperr holds the error taxonomy surfaced to callers of the
// repositories and the session. Every error leaving those layers is an *Error
// with a message that can be shown to the user as is.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthRequired
	KindNotFound
	KindConflict
	KindDataAccess
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthRequired:
		return "auth_required"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindDataAccess:
		return "data_access"
	case KindTimeout:
		return "timeout"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Kind-only sentinels for errors.Is.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrAuthRequired = &Error{Kind: KindAuthRequired}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrDataAccess   = &Error{Kind: KindDataAccess}
	ErrTimeout      = &Error{Kind: KindTimeout}
)

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind when target carries no message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Msg != "" {
		return t == e
	}
	return t.Kind == e.Kind
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

func AuthRequired(msg string) *Error {
	return &Error{Kind: KindAuthRequired, Msg: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func DataAccess(msg string, err error) *Error {
	return &Error{Kind: KindDataAccess, Msg: msg, Err: err}
}

const (
	MsgTimeout    = "The request timed out. Please try again."
	MsgUnexpected = "An unexpected error occurred. Please try again."
)

type coder interface {
	Code() string
}

// From converts an arbitrary collaborator error into exactly one taxonomy
// error. fallback is the message used when nothing more specific is known.
func From(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Msg: MsgTimeout, Err: err}
	}
	var c coder
	if errors.As(err, &c) {
		if m, ok := Lookup(c.Code()); ok {
			return &Error{Kind: m.Kind, Msg: m.Msg, Err: err}
		}
	}
	if fallback == "" {
		fallback = MsgUnexpected
	}
	return &Error{Kind: KindDataAccess, Msg: fallback, Err: err}
}

// KindOf returns the taxonomy kind of err, or zero if err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}
