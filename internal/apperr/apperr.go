// internal/apperr/apperr.go
//
// Flat error taxonomy shared by the game aggregate, the engine and the
// word pool. Every failure carries a Kind and a human message; mapping a
// Kind to a transport status is the transport's job (see httpserver).

package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindInternal        Kind = "internal"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindForbidden       Kind = "forbidden"
	KindInvalidArgument Kind = "invalid_argument"
)

// Error is a categorized failure of a single action.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Msg }

// Is matches any *Error with the same Kind, so errors.Is(err, &Error{Kind: k})
// works as a category test.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

func newf(k Kind, format string, args ...any) error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error  { return newf(KindNotFound, format, args...) }
func Conflict(format string, args ...any) error  { return newf(KindConflict, format, args...) }
func Forbidden(format string, args ...any) error { return newf(KindForbidden, format, args...) }
func Invalid(format string, args ...any) error   { return newf(KindInvalidArgument, format, args...) }

// KindOf reports the Kind of err, or KindInternal for uncategorized errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries kind k anywhere in its chain.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
