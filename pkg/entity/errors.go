package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies entity failures independently of any wire protocol.
type Kind int

const (
	// KindBackend covers store and downstream RPC failures, including
	// duplicate identifiers and timeouts.
	KindBackend Kind = iota
	// KindNotFound means the requested identifier does not exist.
	KindNotFound
	// KindInvalid means a required field is missing or malformed.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	default:
		return "backend"
	}
}

// ErrAlreadyExists marks Backend errors caused by a duplicate identifier.
var ErrAlreadyExists = errors.New("already exists")

// Error is returned by every Service implementation.
type Error struct {
	Kind   Kind
	Entity string
	// Message is safe to show to callers.
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds a NotFound error for the named entity, e.g. "Library not found".
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: entity + " not found"}
}

// Invalid builds an Invalid error with a caller-facing message.
func Invalid(entity, msg string) *Error {
	return &Error{Kind: KindInvalid, Entity: entity, Message: msg}
}

// Backend wraps err as a Backend error with a stable public message.
func Backend(entity string, err error) *Error {
	msg := strings.ToLower(entity) + " backend error"
	if errors.Is(err, ErrAlreadyExists) {
		msg = strings.ToLower(entity) + " already exists"
	}
	return &Error{Kind: KindBackend, Entity: entity, Message: msg, Err: err}
}

// KindOf returns the kind of err. Errors that are not *Error count as Backend.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBackend
}

// IsNotFound reports whether err is a NotFound entity error.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// PublicMessage returns the caller-facing message for err without leaking
// wrapped internals.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
