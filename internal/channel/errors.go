package channel

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for channel operations.
var (
	// ErrNoChannel indicates a reply targets a channel that is not registered.
	ErrNoChannel = errors.New("channel: unknown channel")

	// ErrDuplicateChannel indicates two adapters claim the same channel id.
	ErrDuplicateChannel = errors.New("channel: duplicate channel")

	// ErrForbidden indicates a verification secret or token did not match.
	ErrForbidden = errors.New("channel: verification failed")

	// ErrBadEnvelope indicates a delivery body lacks the platform's expected shape.
	ErrBadEnvelope = errors.New("channel: malformed envelope")

	// ErrHandshakeUnsupported indicates the platform has no GET handshake flow.
	ErrHandshakeUnsupported = errors.New("channel: handshake not supported")
)

// FailureClass partitions send failures by how the dispatcher must react.
type FailureClass string

const (
	// FailureTransient covers network faults, timeouts, rate limits, and
	// 5xx responses. Eligible for retry.
	FailureTransient FailureClass = "transient"

	// FailureAuth covers invalid or expired credentials. Fatal for every
	// message on the channel until the operator rotates the secret.
	FailureAuth FailureClass = "auth"

	// FailureRecipient covers platform-reported invalid recipients. Fatal
	// for this message only.
	FailureRecipient FailureClass = "recipient"
)

// SendError wraps a send failure with its dispatch classification.
type SendError struct {
	Class FailureClass
	Err   error
}

// Error implements the error interface.
func (e *SendError) Error() string {
	return fmt.Sprintf("channel: %s send failure: %v", e.Class, e.Err)
}

// Unwrap returns the underlying error.
func (e *SendError) Unwrap() error { return e.Err }

// Transient builds a retryable SendError.
func Transient(err error) *SendError {
	return &SendError{Class: FailureTransient, Err: err}
}

// AuthFailure builds a fatal credential SendError.
func AuthFailure(err error) *SendError {
	return &SendError{Class: FailureAuth, Err: err}
}

// RecipientFailure builds a per-message fatal SendError.
func RecipientFailure(err error) *SendError {
	return &SendError{Class: FailureRecipient, Err: err}
}

// Classify extracts the FailureClass from an error. Errors that are not
// *SendError (raw transport faults, context deadlines) count as transient,
// which errs on the side of retrying.
func Classify(err error) FailureClass {
	var se *SendError
	if errors.As(err, &se) {
		return se.Class
	}
	return FailureTransient
}

// ClassifyStatus maps an HTTP status code from a platform API to a failure
// class. Platform-specific error bodies can refine this (for example a 400
// that names an invalid recipient), so adapters treat it as a fallback.
func ClassifyStatus(code int) FailureClass {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return FailureAuth
	default:
		return FailureTransient
	}
}
