package provider

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bearjaws/modelfusion/api"
)

// HTTPError builds the error for a failed provider request. Retryable
// statuses are marked as such and a Retry-After header becomes the hint.
func HTTPError(statusCode int, header http.Header, cause error) *api.CallError {
	var msg string
	if cause == nil {
		msg = http.StatusText(statusCode)
	}
	return &api.CallError{
		Message:        msg,
		StatusCode:     statusCode,
		ShouldRetry:    api.RetryableStatus(statusCode),
		RetryAfterHint: RetryAfter(header, time.Now()),
		Cause:          cause,
	}
}

// TransportError builds the error for a request that got no response.
// Transport failures are transient.
func TransportError(cause error) *api.CallError {
	return &api.CallError{Message: cause.Error(), ShouldRetry: true, Cause: cause}
}

// RetryAfter parses a Retry-After header given either in seconds or as an
// HTTP date. It returns zero when the header is absent or unparsable.
func RetryAfter(header http.Header, now time.Time) time.Duration {
	if header == nil {
		return 0
	}
	if ms := header.Get("Retry-After-Ms"); ms != "" {
		if v, err := strconv.ParseFloat(ms, 64); err == nil && v > 0 {
			return time.Duration(v * float64(time.Millisecond))
		}
	}
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
