package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a request failure. Kinds are stable strings surfaced to callers.
type Kind string

const (
	Validation        Kind = "validation_error"
	DuplicateSequence Kind = "duplicate_sequence"
	Reference         Kind = "reference_error"
	InvalidTransition Kind = "invalid_transition"
	NotFound          Kind = "not_found"
	Limit             Kind = "limit_error"

	// Internal is reported for errors that carry no Kind.
	Internal Kind = "internal_error"
)

// Error is a classified request failure. Session state is never modified
// by an operation that returns one.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches sentinels by kind, so errors.Is(err, fault.ErrNotFound) holds for
// any not_found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: Validation}
	ErrDuplicateSequence = &Error{Kind: DuplicateSequence}
	ErrReference         = &Error{Kind: Reference}
	ErrInvalidTransition = &Error{Kind: InvalidTransition}
	ErrNotFound          = &Error{Kind: NotFound}
	ErrLimit             = &Error{Kind: Limit}
)

// New builds a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *Error { return New(Validation, format, args...) }
func Referencef(format string, args ...any) *Error  { return New(Reference, format, args...) }
func NotFoundf(format string, args ...any) *Error   { return New(NotFound, format, args...) }
func Limitf(format string, args ...any) *Error      { return New(Limit, format, args...) }

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Internal
}

// From converts any error into an *Error, wrapping unclassified errors as Internal.
func From(err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Kind: Internal, Message: err.Error()}
}
