package gateway

import (
	"errors"
)

// ErrorKind classifies failures so callers can branch without string matching.
type ErrorKind string

const (
	// KindUnauthorized means the session is gone. Not retryable; the caller
	// must abandon the current screen.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindFetchFailed covers network, read and parse failures. Retryable.
	KindFetchFailed ErrorKind = "fetch_failed"
	// KindServerRejected means the endpoint answered with st != 1.
	KindServerRejected ErrorKind = "server_rejected"
	// KindValidationRejected is a local rejection issued before any request.
	// It is a warning: the operation simply did not apply.
	KindValidationRejected ErrorKind = "validation_rejected"
)

// GenericFailureMessage is shown when the server gives no message.
const GenericFailureMessage = "Something went wrong. Please try again."

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind. A target without a message
// matches every error of its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrFetchFailed        = &Error{Kind: KindFetchFailed}
	ErrServerRejected     = &Error{Kind: KindServerRejected}
	ErrValidationRejected = &Error{Kind: KindValidationRejected}
)

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func FetchFailed(message string, err error) *Error {
	return &Error{Kind: KindFetchFailed, Message: message, Err: err}
}

// ServerRejected keeps the server message verbatim and falls back to a
// generic one when it is blank.
func ServerRejected(message string) *Error {
	if message == "" {
		message = GenericFailureMessage
	}
	return &Error{Kind: KindServerRejected, Message: message}
}

func Rejected(message string) *Error {
	return &Error{Kind: KindValidationRejected, Message: message}
}

// KindOf returns the kind of the first *Error in the chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the text to show the user for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindUnauthorized:
			if e.Message != "" {
				return e.Message
			}
			return "Your session has expired. Please log in again."
		case KindFetchFailed:
			return "Could not reach the server. Please try again."
		default:
			if e.Message != "" {
				return e.Message
			}
		}
	}
	return GenericFailureMessage
}
