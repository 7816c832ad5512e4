// Package retry re-runs failed provider calls under a throttle policy.
package retry

import (
	"fmt"
	"math"
	"time"

	"github.com/bearjaws/modelfusion/api"
	"github.com/fogfish/opts"
)

// Policy decides whether and when a failed attempt is retried.
type Policy interface {
	// MaxTries is the total number of attempts, including the first one.
	MaxTries() int
	// Retryable reports whether err warrants another attempt.
	Retryable(err error) bool
	// Delay returns the wait before the next attempt, where failures is the
	// number of failed attempts so far.
	Delay(failures int, err error) time.Duration
}

// Never makes a single attempt and surfaces its failure unchanged.
func Never() Policy {
	return never{}
}

type never struct{}

func (never) MaxTries() int { return 1 }

func (never) Retryable(error) bool { return false }

func (never) Delay(int, error) time.Duration { return 0 }

// Backoff retries with exponentially growing delays.
type Backoff struct {
	maxTries     int
	initialDelay time.Duration
	factor       float64
	maxDelay     time.Duration
	retryable    func(error) bool
}

var (
	// MaxTries sets the total number of attempts. Defaults to 3.
	MaxTries = opts.ForName[Backoff, int]("maxTries")
	// InitialDelay sets the wait after the first failure. Defaults to 2s.
	InitialDelay = opts.ForName[Backoff, time.Duration]("initialDelay")
	// BackoffFactor multiplies the delay after each failure. Defaults to 2.
	BackoffFactor = opts.ForName[Backoff, float64]("factor")
	// MaxDelay caps a single delay. Zero means no cap.
	MaxDelay = opts.ForName[Backoff, time.Duration]("maxDelay")
)

// RetryIf replaces the retryable classification, which defaults to api.IsRetryable.
// Cancellation is never retried regardless of the predicate.
func RetryIf(fn func(error) bool) opts.Option[Backoff] {
	return opts.Type[Backoff](func(b *Backoff) error {
		if fn == nil {
			return fmt.Errorf("retry predicate is required")
		}
		b.retryable = fn
		return nil
	})
}

// Exponential builds a backoff policy. It panics on invalid options.
func Exponential(options ...opts.Option[Backoff]) *Backoff {
	b := &Backoff{
		maxTries:     3,
		initialDelay: 2 * time.Second,
		factor:       2,
		retryable:    api.IsRetryable,
	}
	if err := opts.Apply(b, options); err != nil {
		panic(fmt.Sprintf("retry: invalid options: %v", err))
	}
	if b.maxTries < 1 {
		panic(fmt.Sprintf("retry: max tries must be at least 1, got %d", b.maxTries))
	}
	if b.factor < 1 {
		panic(fmt.Sprintf("retry: backoff factor must be at least 1, got %v", b.factor))
	}
	return b
}

func (b *Backoff) MaxTries() int {
	return b.maxTries
}

func (b *Backoff) Retryable(err error) bool {
	if api.IsAbort(err) {
		return false
	}
	return b.retryable(err)
}

// Delay grows as initialDelay * factor^(failures-1). A provider retry-after
// hint longer than the computed delay takes precedence.
func (b *Backoff) Delay(failures int, err error) time.Duration {
	if failures < 1 {
		failures = 1
	}
	d := time.Duration(float64(b.initialDelay) * math.Pow(b.factor, float64(failures-1)))
	if b.maxDelay > 0 && d > b.maxDelay {
		d = b.maxDelay
	}
	if hint, ok := api.RetryAfter(err); ok && hint > d {
		d = hint
	}
	return d
}
