package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. The HTTP layer maps each kind to a
// status code; nothing else about an error affects the response status.
type Kind int

const (
	// KindInternal is the zero value so uncategorized errors default to it.
	KindInternal Kind = iota
	KindNotFound
	KindGateway
	KindInvalidField
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindGateway:
		return "gateway"
	case KindInvalidField:
		return "invalid_field"
	default:
		return "internal"
	}
}

// Error is the error type returned by BookService and UserService.
type Error struct {
	Kind Kind
	// Msg is the human-readable message sent to clients.
	Msg string
	// Field names the offending key for KindInvalidField.
	Field string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Gateway(msg string) error {
	return &Error{Kind: KindGateway, Msg: msg}
}

// Internal wraps cause, appending its message to msg when both are set.
func Internal(msg string, cause error) error {
	switch {
	case cause == nil:
		return &Error{Kind: KindInternal, Msg: msg}
	case msg == "":
		return &Error{Kind: KindInternal, Msg: cause.Error(), Err: cause}
	default:
		return &Error{Kind: KindInternal, Msg: fmt.Sprintf("%s: %v", msg, cause), Err: cause}
	}
}

func InvalidField(field, msg string) error {
	return &Error{Kind: KindInvalidField, Msg: msg, Field: field}
}

// KindOf reports the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
