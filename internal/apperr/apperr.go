package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure returned by the engine or the stores.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindProtected      Kind = "protected"
	KindPolicy         Kind = "policy"
	KindAlreadyActive  Kind = "already_active"
	KindNoPendingBreak Kind = "no_pending_break"
	KindNotRunning     Kind = "not_running"
	KindPersistence    Kind = "persistence"
)

// Kinds lists every Kind, in declaration order.
var Kinds = []Kind{
	KindValidation,
	KindNotFound,
	KindProtected,
	KindPolicy,
	KindAlreadyActive,
	KindNoPendingBreak,
	KindNotRunning,
	KindPersistence,
}

// Error is a typed rejection. Op names the command that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrProtected      = &Error{Kind: KindProtected}
	ErrPolicy         = &Error{Kind: KindPolicy}
	ErrAlreadyActive  = &Error{Kind: KindAlreadyActive}
	ErrNoPendingBreak = &Error{Kind: KindNoPendingBreak}
	ErrNotRunning     = &Error{Kind: KindNotRunning}
	ErrPersistence    = &Error{Kind: KindPersistence}
)

func New(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags err with kind. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
