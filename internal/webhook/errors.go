package webhook

import (
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies why a delivery was rejected. Each kind maps to exactly one
// HTTP status and response body.
type Kind int

const (
	KindPersistence Kind = iota
	KindMethodNotAllowed
	KindInvalidSignature
	KindMalformedPayload
	KindUserNotFound
)

func (k Kind) String() string {
	switch k {
	case KindMethodNotAllowed:
		return "method not allowed"
	case KindInvalidSignature:
		return "invalid signature"
	case KindMalformedPayload:
		return "malformed payload"
	case KindUserNotFound:
		return "user not found"
	default:
		return "persistence error"
	}
}

// Status is the HTTP status code sent for k.
func (k Kind) Status() int {
	switch k {
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindInvalidSignature:
		return http.StatusUnauthorized
	case KindMalformedPayload:
		return http.StatusBadRequest
	case KindUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Body is the plain text response body sent for k. It never carries
// request details.
func (k Kind) Body() string {
	switch k {
	case KindMethodNotAllowed:
		return "Only POST requests allowed"
	case KindInvalidSignature:
		return "Invalid signature"
	case KindMalformedPayload:
		return "Invalid payload"
	case KindUserNotFound:
		return "User not found"
	default:
		return "Database error"
	}
}

// Error is a rejected delivery. Err holds the diagnostic cause for the log.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func reject(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the Kind of err. Errors that are not *Error are treated
// as persistence failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}
