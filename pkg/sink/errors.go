package sink

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the sink implementations. HTTP failures use
// "HTTP_<status>".
const (
	CodeNetwork = "NETWORK"
	CodeWrite   = "WRITE"
	CodePublish = "PUBLISH"
	CodePayload = "PAYLOAD"
)

// SinkError is a delivery failure at one remote destination. Two SinkErrors
// match under errors.Is when their codes are equal.
type SinkError struct {
	Sink       string
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

func (e *SinkError) Error() string {
	msg := fmt.Sprintf("%s error (%s): %s", e.Sink, e.Code, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SinkError) Unwrap() error { return e.Cause }

func (e *SinkError) Is(target error) bool {
	var t *SinkError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewSinkError creates a permanent SinkError.
func NewSinkError(sink, code, message string) *SinkError {
	return &SinkError{Sink: sink, Code: code, Message: message}
}

// Transient wraps a transport-level failure that is worth retrying.
func Transient(sink, code, message string, cause error) *SinkError {
	return &SinkError{Sink: sink, Code: code, Message: message, Cause: cause, Retryable: true}
}

// HTTPStatus describes a non-success HTTP response. 5xx and 429 are retryable.
func HTTPStatus(sink string, status int, message string) *SinkError {
	return &SinkError{
		Sink:       sink,
		Code:       fmt.Sprintf("HTTP_%d", status),
		Message:    message,
		StatusCode: status,
		Retryable:  status >= http.StatusInternalServerError || status == http.StatusTooManyRequests,
	}
}

func (e *SinkError) WithCause(err error) *SinkError {
	e.Cause = err
	return e
}

var (
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrNotConfigured      = errors.New("sink not configured")
)

// IsRetryable reports whether a failed delivery could succeed later.
func IsRetryable(err error) bool {
	var sinkErr *SinkError
	if errors.As(err, &sinkErr) {
		return sinkErr.Retryable
	}
	return errors.Is(err, ErrServiceUnavailable)
}
