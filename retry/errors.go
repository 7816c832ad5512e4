package retry

import (
	"fmt"
	"strings"
)

// Reason explains why the retry loop gave up.
type Reason string

const (
	MaxTriesExceeded  Reason = "maxTriesExceeded"
	ErrorNotRetryable Reason = "errorNotRetryable"
)

// RetryError is returned once retrying stopped after more than one attempt,
// or when the only permitted attempt failed with a retryable error.
type RetryError struct {
	Reason Reason
	// Errors holds the failure of every attempt in order.
	Errors []error
}

func (e *RetryError) Error() string {
	var b strings.Builder
	switch e.Reason {
	case ErrorNotRetryable:
		fmt.Fprintf(&b, "failed after %d attempt(s) with non-retryable error: %v", len(e.Errors), e.LastError())
	default:
		fmt.Fprintf(&b, "failed after %d attempt(s), last error: %v", len(e.Errors), e.LastError())
	}
	return b.String()
}

// LastError returns the failure of the final attempt.
func (e *RetryError) LastError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

// Unwrap exposes the failure of the final attempt.
func (e *RetryError) Unwrap() error {
	return e.LastError()
}
