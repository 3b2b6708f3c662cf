package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so the HTTP layer can map it to a
// status code without inspecting message text.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindForbidden
	KindNotFound
	KindConflict
	KindInUse
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Msg: what + " tidak ditemukan"}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func InUse(msg string) error {
	return &Error{Kind: KindInUse, Msg: msg}
}

func Internal(err error) error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// KindOf returns the classification of err, or KindInternal for anything
// that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, k Kind) bool { return KindOf(err) == k }
