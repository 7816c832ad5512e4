package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/bearjaws/modelfusion/api"
	"github.com/bearjaws/modelfusion/pkg/slogx"
	"github.com/bearjaws/modelfusion/throttle"
)

// Call runs fn under policy without throttling.
func Call[T any](ctx context.Context, policy Policy, fn func(context.Context) (T, error)) (T, error) {
	return CallWithThrottle(ctx, policy, throttle.Off(), fn)
}

// CallWithThrottle runs fn, acquiring admission from gate before every attempt
// and releasing it as soon as the attempt returns. Waiting for admission is not
// an attempt. Cancellation, whether observed while waiting for admission,
// during an attempt or during a backoff, ends the loop with an *api.AbortError.
//
// A nil policy behaves like Never and a nil gate like throttle.Off.
func CallWithThrottle[T any](ctx context.Context, policy Policy, gate throttle.Policy, fn func(context.Context) (T, error)) (T, error) {
	if policy == nil {
		policy = Never()
	}
	if gate == nil {
		gate = throttle.Off()
	}

	var zero T
	var failures []error
	for attempt := 1; ; attempt++ {
		v, err := attemptOnce(ctx, gate, fn)
		if err == nil {
			return v, nil
		}
		if cause := abortCause(ctx, err); cause != nil {
			return zero, api.NewAbortError(cause)
		}

		failures = append(failures, err)
		if !policy.Retryable(err) {
			if attempt == 1 {
				return zero, err
			}
			return zero, &RetryError{Reason: ErrorNotRetryable, Errors: failures}
		}
		if attempt >= policy.MaxTries() {
			return zero, &RetryError{Reason: MaxTriesExceeded, Errors: failures}
		}

		delay := policy.Delay(attempt, err)
		slog.DebugContext(ctx, "retrying model call",
			slogx.LoggerName("retry"),
			slog.Int("attempt", attempt),
			slogx.Duration("delay_ms", delay),
			slogx.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return zero, api.NewAbortError(err)
		}
	}
}

func attemptOnce[T any](ctx context.Context, gate throttle.Policy, fn func(context.Context) (T, error)) (T, error) {
	release, err := gate.Acquire(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer release()
	return fn(ctx)
}

// abortCause returns the cancellation behind err, or the context error when
// the caller cancelled while the attempt failed for another reason.
func abortCause(ctx context.Context, err error) error {
	if api.IsAbort(err) {
		return err
	}
	return ctx.Err()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
