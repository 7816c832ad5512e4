package api

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AbortError reports that an invocation was cancelled by its caller.
type AbortError struct {
	Cause error
}

// NewAbortError wraps cause, which is usually a context error.
func NewAbortError(cause error) *AbortError {
	if ae, ok := cause.(*AbortError); ok {
		return ae
	}
	return &AbortError{Cause: cause}
}

func (e *AbortError) Error() string {
	if e.Cause == nil {
		return "aborted"
	}
	return fmt.Sprintf("aborted: %v", e.Cause)
}

func (e *AbortError) Unwrap() error {
	return e.Cause
}

// IsAbort reports whether err signals cancellation. The classification is by
// type only: an AbortError, context.Canceled or context.DeadlineExceeded
// anywhere in the chain.
func IsAbort(err error) bool {
	if err == nil {
		return false
	}
	var ae *AbortError
	if errors.As(err, &ae) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// CallError is a failure reported by a collaborator while talking to a provider.
type CallError struct {
	Message    string
	StatusCode int
	// ShouldRetry marks the failure as transient.
	ShouldRetry bool
	// RetryAfterHint is the delay requested by the provider, zero when absent.
	RetryAfterHint time.Duration
	Cause          error
}

func (e *CallError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("model call failed (status %d): %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("model call failed: %s", msg)
}

func (e *CallError) Unwrap() error {
	return e.Cause
}

func (e *CallError) Retryable() bool {
	return e.ShouldRetry
}

func (e *CallError) RetryAfter() time.Duration {
	return e.RetryAfterHint
}

// IsRetryable reports whether err was marked as transient by any error in its
// chain implementing Retryable() bool. Cancellation is never retryable.
func IsRetryable(err error) bool {
	if err == nil || IsAbort(err) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// RetryAfter returns the provider-requested retry delay carried by err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var r interface{ RetryAfter() time.Duration }
	if errors.As(err, &r) && r.RetryAfter() > 0 {
		return r.RetryAfter(), true
	}
	return 0, false
}

// RetryableStatus reports whether an HTTP status code denotes a transient failure.
func RetryableStatus(code int) bool {
	return code == 408 || code == 409 || code == 429 || code >= 500
}
