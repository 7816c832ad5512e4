package provider

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bearjaws/modelfusion/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptValidate(t *testing.T) {
	require.NoError(t, TextPrompt("hi").Validate())
	require.NoError(t, ChatPrompt("be brief", User("hi"), Assistant("hello"), User("how are you?")).Validate())

	assert.ErrorIs(t, Prompt{System: "x"}.Validate(), ErrEmptyPrompt)
	assert.EqualError(t, ChatPrompt("", User("hi"), Assistant("hello")).Validate(),
		`prompt must end with a user message, got "assistant"`)
	assert.EqualError(t, ChatPrompt("", Message{Role: "tool", Content: "x"}).Validate(),
		`message 0: unknown role "tool"`)
}

func TestPromptString(t *testing.T) {
	p := InstructionPrompt("be brief", "write a haiku")
	assert.Equal(t, "system: be brief\nuser: write a haiku", p.String())
}

func TestHTTPError(t *testing.T) {
	t.Run("throttled", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", "3")
		err := HTTPError(http.StatusTooManyRequests, h, nil)
		assert.True(t, api.IsRetryable(err))
		hint, ok := api.RetryAfter(err)
		require.True(t, ok)
		assert.Equal(t, 3*time.Second, hint)
		assert.EqualError(t, err, "model call failed (status 429): Too Many Requests")
	})

	t.Run("client error", func(t *testing.T) {
		cause := errors.New("invalid api key")
		err := HTTPError(http.StatusUnauthorized, nil, cause)
		assert.False(t, api.IsRetryable(err))
		assert.ErrorIs(t, err, cause)
		assert.EqualError(t, err, "model call failed (status 401): invalid api key")
	})

	t.Run("transport", func(t *testing.T) {
		err := TransportError(errors.New("connection refused"))
		assert.True(t, api.IsRetryable(err))
	})
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	header := func(k, v string) http.Header {
		h := http.Header{}
		h.Set(k, v)
		return h
	}

	assert.Zero(t, RetryAfter(nil, now))
	assert.Zero(t, RetryAfter(http.Header{}, now))
	assert.Zero(t, RetryAfter(header("Retry-After", "soon"), now))
	assert.Zero(t, RetryAfter(header("Retry-After", "-1"), now))
	assert.Equal(t, 1500*time.Millisecond, RetryAfter(header("Retry-After", "1.5"), now))
	assert.Equal(t, 250*time.Millisecond, RetryAfter(header("Retry-After-Ms", "250"), now))
	assert.Equal(t, 30*time.Second, RetryAfter(header("Retry-After", now.Add(30*time.Second).Format(http.TimeFormat)), now))
	assert.Zero(t, RetryAfter(header("Retry-After", now.Add(-time.Minute).Format(http.TimeFormat)), now))
}
