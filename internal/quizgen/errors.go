package quizgen

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a GenerationError. The kinds double as sentinel
// errors, so errors.Is(err, ErrParse) works on any wrapped GenerationError.
type ErrorKind string

func (k ErrorKind) Error() string { return string(k) }

const (
	ErrInvalidRequest   ErrorKind = "InvalidRequest"
	ErrBackend          ErrorKind = "GenerationBackendError"
	ErrParse            ErrorKind = "ParseError"
	ErrGenerationFailed ErrorKind = "GenerationFailed"
)

// GenerationError is the single failure type returned by the service.
type GenerationError struct {
	Kind ErrorKind

	// Backend is set when Kind is ErrBackend.
	Backend BackendKind

	Message string

	// Attempts and States carry the generation history up to the failure.
	Attempts []Attempt
	States   []State

	Err error
}

func newError(kind ErrorKind, msg string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Message: msg, Err: err}
}

func (e *GenerationError) Error() string {
	if e.Kind == ErrBackend && e.Backend != "" {
		return fmt.Sprintf("%s{%s}: %s", e.Kind, e.Backend, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is matches the sentinel ErrorKind values.
func (e *GenerationError) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.Kind
}

// BackendKind is the retryable failure class reported by a GenerationClient.
type BackendKind string

const (
	BackendTimeout            BackendKind = "Timeout"
	BackendRateLimited        BackendKind = "RateLimited"
	BackendServiceUnavailable BackendKind = "ServiceUnavailable"
)

// BackendError is returned by GenerationClient implementations for
// transient backend failures.
type BackendError struct {
	Kind BackendKind

	// RetryAfter is the backend's requested wait, if it gave one.
	RetryAfter time.Duration

	Err error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("backend %s", e.Kind)
}

func (e *BackendError) Unwrap() error { return e.Err }

// asBackendError extracts a BackendError, treating any other non-context
// error as the backend being unavailable.
func asBackendError(err error) *BackendError {
	var be *BackendError
	if errors.As(err, &be) {
		return be
	}
	return &BackendError{Kind: BackendServiceUnavailable, Err: err}
}
