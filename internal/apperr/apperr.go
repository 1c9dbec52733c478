// Package apperr classifies the errors a booth session can surface to the user.
//
// Every error produced at the boundary of a user action carries one Kind. The
// kind decides how the error is shown and which HTTP status the local adapter
// answers with; it never changes the workflow state.
package apperr

import (
	"errors"
	"net/http"
)

// Kind identifies an error category.
type Kind string

// Error kinds.
const (
	KindValidation      Kind = "validation"
	KindTransport       Kind = "transport"
	KindMissingArtifact Kind = "missing_artifact"
	KindCaptureDevice   Kind = "capture_device"
	KindAuth            Kind = "auth"
)

// Error is a classified error.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports missing or invalid user input.
func Validation(op, message string) error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// Transport wraps a network or HTTP failure.
func Transport(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// TransportMessage reports an HTTP failure described by the remote service.
func TransportMessage(op, message string) error {
	return &Error{Kind: KindTransport, Op: op, Message: message}
}

// MissingArtifact reports a response that succeeded at the transport level
// but omitted a required field.
func MissingArtifact(op, message string) error {
	return &Error{Kind: KindMissingArtifact, Op: op, Message: message}
}

// CaptureDevice wraps a camera access failure.
func CaptureDevice(op string, err error) error {
	return &Error{Kind: KindCaptureDevice, Op: op, Err: err}
}

// Auth reports that the kiosk has no usable credentials.
func Auth(op string, err error) error {
	return &Error{Kind: KindAuth, Op: op, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain,
// or an empty Kind if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing text of err without the operation prefix.
func Message(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	inner := *e
	inner.Op = ""
	return inner.Error()
}

// HTTPStatus maps an error kind to the status the local adapter responds with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindTransport, KindMissingArtifact:
		return http.StatusBadGateway
	case KindCaptureDevice:
		return http.StatusServiceUnavailable
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
