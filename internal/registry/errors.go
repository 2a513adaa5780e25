package registry

import (
	"errors"
	"fmt"
)

// ErrAuthRejected is the sentinel for 401 responses. The session gate matches
// on it to clear stored credentials.
var ErrAuthRejected = errors.New("authentication rejected")

// AuthError wraps ErrAuthRejected with the endpoint that triggered it.
type AuthError struct {
	Endpoint string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected by %s", e.Endpoint)
}

func (e *AuthError) Unwrap() error { return ErrAuthRejected }

// RequestError is any non-2xx, non-401 backend failure, or a network-level
// failure with no response at all. Structured reports whether the backend
// supplied an {error: "..."} envelope; network failures never do.
type RequestError struct {
	Endpoint   string
	Status     int // 0 when no response was received
	Message    string
	Structured bool
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request to %s failed: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("request to %s failed (%d): %s", e.Endpoint, e.Status, e.Message)
}

// ValidationError is a client-side precondition failure. It never reaches the
// network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
