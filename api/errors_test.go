package api

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsAbort(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, true},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped canceled", fmt.Errorf("request: %w", context.Canceled), true},
		{"abort error", &AbortError{}, true},
		{"wrapped abort error", fmt.Errorf("x: %w", NewAbortError(nil)), true},
		{"plain error", errors.New("boom"), false},
		{"call error", &CallError{Message: "bad"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAbort(tt.err))
		})
	}
}

func TestNewAbortError(t *testing.T) {
	ae := NewAbortError(context.Canceled)
	assert.ErrorIs(t, ae, context.Canceled)
	assert.Equal(t, "aborted: context canceled", ae.Error())
	assert.Same(t, ae, NewAbortError(ae))
	assert.Equal(t, "aborted", (&AbortError{}).Error())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.True(t, IsRetryable(&CallError{ShouldRetry: true}))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", &CallError{ShouldRetry: true})))
	assert.False(t, IsRetryable(&CallError{ShouldRetry: false}))
	assert.False(t, IsRetryable(&CallError{ShouldRetry: true, Cause: context.Canceled}))
}

func TestRetryAfter(t *testing.T) {
	d, ok := RetryAfter(&CallError{RetryAfterHint: 3 * time.Second})
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)

	_, ok = RetryAfter(&CallError{})
	assert.False(t, ok)

	_, ok = RetryAfter(errors.New("boom"))
	assert.False(t, ok)
}

func TestCallError_Error(t *testing.T) {
	assert.Equal(t, "model call failed (status 429): slow down", (&CallError{Message: "slow down", StatusCode: 429}).Error())
	assert.Equal(t, "model call failed: boom", (&CallError{Cause: errors.New("boom")}).Error())
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 409, 429, 500, 502, 503} {
		assert.True(t, RetryableStatus(code), code)
	}
	for _, code := range []int{400, 401, 403, 404, 422} {
		assert.False(t, RetryableStatus(code), code)
	}
}
